// Package version exposes build-time version information for waftools.
package version

// Version is the semantic version of the tool collection. Overridden at
// link time with -ldflags "-X github.com/benpapworth/waftools/internal/version.Version=...".
var Version = "0.4.0"

// WafDefault is the waf release installed by the setup command when no
// explicit version is requested.
const WafDefault = "1.8.2"

// WafToolsDefault is the default set of extra waf tools baked into the
// generated waf executable.
const WafToolsDefault = "unity,batched_cc"
