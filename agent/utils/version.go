package utils

// Version is the version of the agency. Release builds overwrite it with
// -ldflags "-X".
var Version = "0.1.0-dev"
