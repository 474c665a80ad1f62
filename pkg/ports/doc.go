// Package ports holds the TokenStore interface and its shared contract test,
// letting the CLI keep the logged-in user in a file while a shared server
// keeps it in Redis.
package ports
