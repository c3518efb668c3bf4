package main

// version is stamped by the release build via -ldflags.
var version = "dev"
