// Package main is a local runner for client-side applications.
//
// It plays the browser's part without a browser:
//
//	host page ──▶ autostart? ──▶ boot manifest ──▶ goja runtime ──▶ entry point
//	                                    └── css / js ──┘
//
// Once the application is running, routing is initialized with an
// in-process interceptor and navigations made by the application resolve
// against the route table. When the host page has a progress element, boot
// progress is shown as "<completed> / <total>".
//
// Usage:
//
//	./boot -base http://localhost:8000/app/ -routes routes.yaml
//	./boot -base http://localhost:8000/app/ -location http://localhost:8000/app/counter
//
//	# Boot even when the host page sets autostart="false"
//	./boot -force
package main
