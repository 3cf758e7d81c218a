// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent is the User-Agent igw sends to gateways.
func UserAgent() string {
	return "igw/" + Version
}
