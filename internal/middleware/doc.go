// Package middleware provides HTTP middleware for the photo journal API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Configurable filtering of health checks and noisy paths
package middleware
