// Package config provides configuration loading, merging, and validation
// facilities for embedding the vault.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for fields they set):
//  1. Environment variables (prefixed with PASSVAULT_)
//  2. JSON config file (path from PASSVAULT_CONFIG or given explicitly)
//  3. Built-in defaults
//
// The main entry points are [GetConfig], which resolves the JSON file path
// from the environment, and [GetConfigFromFile] for an explicit path. Host
// applications that assemble a [Config] by hand can skip this package
// entirely; every field has a usable zero-value interpretation.
package config
