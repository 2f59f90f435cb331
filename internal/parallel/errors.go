// Package parallel provides small helpers shared by the concurrent parts of
// the simulator: first-error collection and work partitioning.
package parallel

import "sync"

// ErrorCollector collects the first error from parallel goroutines.
// It is safe for use by multiple goroutines.
//
// Usage:
//
//	var ec parallel.ErrorCollector
//	var wg sync.WaitGroup
//	for _, x := range bases {
//	    wg.Add(1)
//	    go func() {
//	        defer wg.Done()
//	        ec.SetError(scan(x))
//	    }()
//	}
//	wg.Wait()
//	if err := ec.Err(); err != nil {
//	    return err
//	}
type ErrorCollector struct {
	once sync.Once
	mu   sync.Mutex
	err  error
}

// SetError records err if no error has been recorded yet. Nil is ignored.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
	})
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reset clears the collector. It must not race with SetError.
func (c *ErrorCollector) Reset() {
	c.once = sync.Once{}
	c.err = nil
}
