package version_test

import (
	"fmt"

	"github.com/matzehuels/mvnfetch/pkg/version"
)

func ExampleCompare() {
	fmt.Println(version.Compare("1.0-alpha-1", "1.0"))
	fmt.Println(version.Compare("1.10", "1.9"))
	fmt.Println(version.Compare("1.0.0", "1"))
	// Output:
	// -1
	// 1
	// 0
}

func ExampleSort() {
	vs := []string{"2.0", "1.0-rc1", "1.0", "1.0-SNAPSHOT", "1.0-beta"}
	version.Sort(vs)
	fmt.Println(vs)
	// Output:
	// [1.0-beta 1.0-rc1 1.0-SNAPSHOT 1.0 2.0]
}

func ExampleRange_Select() {
	r, err := version.ParseRange("[1.0,2.0)")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	v, ok := r.Select([]string{"0.9", "1.0", "1.5", "2.0"})
	fmt.Println(v, ok)
	// Output:
	// 1.5 true
}
