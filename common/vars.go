package common

// PackageName is used as the metrics namespace and the default log service tag.
const PackageName = "verichain"

// Version is set at build time via -ldflags "-X github.com/ruteri/verichain/common.Version=..."
var Version = "dev"
