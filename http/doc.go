// Package http translates declarative client and request descriptions
// into calls against net/http and normalizes the transport's responses
// into a uniform, introspectable structure.
//
// This package is designed for programmatic use and provides:
//   - Client construction from a ClientConfig where only present fields
//     are applied
//   - Request construction from a RequestConfig with multi-valued
//     headers, per-request timeouts and body variants
//   - A canonical Response with lower-cased headers, a selectable body
//     representation and detailed timing information (DNS, TCP, TLS,
//     TTFB)
//   - Synchronous and asynchronous sends with a fixed
//     normalize/callback/error-handler stage order
//
// Basic Usage:
//
//	resp, err := http.Get(context.Background(),
//	    "https://api.example.com/users", nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Status: %d\n", resp.Status)
//	fmt.Printf("Body: %s\n", resp.Body)
//
// Configured Client Example:
//
//	client, err := http.BuildClient(http.ClientConfig{
//	    ConnectTimeout:  http.Millis(3000),
//	    FollowRedirects: http.RedirectNormal,
//	    Version:         http.HTTP2,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Send(context.Background(), http.RequestConfig{
//	    URI:     "https://api.example.com/users",
//	    Method:  "post",
//	    Headers: http.Headers{"content-type": {"application/json"}},
//	    Timeout: http.Millis(5000),
//	    Body:    http.Text(`{"name":"ada"}`),
//	}, nil)
//
// Asynchronous Sends:
//
//	future := http.SendAsync(context.Background(),
//	    http.URL("https://api.example.com/users"), nil,
//	    func(v interface{}) (interface{}, error) {
//	        return v.(*http.Response).Status, nil
//	    }, nil)
//
//	status, err := future.Result()
//
// Thread Safety:
//
// Client is safe for concurrent use. Multiple goroutines may invoke
// methods on a Client simultaneously; the process-wide default client is
// built lazily on first use and replaceable with SetDefault.
package http
