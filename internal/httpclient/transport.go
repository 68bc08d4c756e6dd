package httpclient

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"

	"github.com/orest-d/liquer/internal/errdef"
)

// maxRedirects bounds redirect chains when FollowRedirects is set.
const maxRedirects = 10

// buildHTTPClient derives a client from the default transport. Polling hits
// one host every few hundred milliseconds, so idle connections to it are kept.
func (c *Client) buildHTTPClient(opts Options) (*http.Client, error) {
	tr, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errdef.New(errdef.CodeHTTP, "default transport is %T", http.DefaultTransport)
	}
	tr = tr.Clone()
	tr.MaxIdleConnsPerHost = 8

	if p := strings.TrimSpace(opts.ProxyURL); p != "" {
		proxy, err := url.Parse(p)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeConfig, err, "invalid proxy url %q", p)
		}
		tr.Proxy = http.ProxyURL(proxy)
	}
	if opts.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	hc := &http.Client{Transport: tr, Jar: c.jar, Timeout: opts.Timeout}
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return errdef.New(errdef.CodeNetwork, "stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return hc, nil
}
