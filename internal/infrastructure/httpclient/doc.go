// Package httpclient fetches host resources (boot manifest, stylesheets,
// scripts, runtime assemblies) for the local boot path.
//
// Built on go-resty/resty with a retryablehttp pooled transport:
//   - relative references resolve against the configured base URL
//   - a cookie jar carries host credentials across requests
//   - transport errors and 5xx responses are retried by resty
//   - a circuit breaker fails fast once the host is clearly down
//   - an optional token-bucket limiter caps request rate
//
// Example Usage:
//
//	client, err := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8000/app/"}, logger)
//	res, err := client.Fetch(ctx, "_framework/blazor.boot.json")
package httpclient
