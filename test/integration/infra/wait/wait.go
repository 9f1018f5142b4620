package wait

import (
	"errors"
	"net"
	"net/http"
	"time"
)

const pollInterval = 200 * time.Millisecond

func poll(timeout time.Duration, probe func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probe() {
			return true
		}
		time.Sleep(pollInterval)
	}
	return false
}

func HTTP200(url string, timeout time.Duration) error {
	ok := poll(timeout, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})
	if !ok {
		return errors.New("timeout waiting for HTTP 200: " + url)
	}
	return nil
}

func TCP(addr string, timeout time.Duration) error {
	ok := poll(timeout, func() bool {
		c, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	})
	if !ok {
		return errors.New("timeout waiting for TCP: " + addr)
	}
	return nil
}
