// Package httputil provides retry with exponential backoff for repository
// clients.
//
// # Retry
//
// [Policy.Do] runs an operation until it succeeds, returns a non-retryable
// error, or runs out of attempts. Only errors wrapped with [Retryable] are
// retried, so the caller decides what is transient: connection failures,
// 5xx responses and 429 rate limits are; a 404 is not.
//
//	err := httputil.DefaultPolicy.Do(ctx, func(attempt int) error {
//	    resp, err := client.Get(url)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    if resp.StatusCode >= 500 {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
//
// Waits grow by Multiplier from BaseDelay and are capped at MaxDelay. A
// cancelled context ends the loop immediately with ctx.Err().
//
// # Defaults
//
// [DefaultPolicy] makes 3 attempts, waiting 500ms then 1s. The retry
// section of the mvnfetch config file overrides it.
package httputil
