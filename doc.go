// FILE: lixenwraith/optcfg/doc.go

// Package optcfg provides typed, sectioned configuration for Go applications.
// A configuration is declared as a tree of Config sections holding typed
// options; the same declaration reads and writes INI-style text and a compact
// protobuf message, validates values and documents itself.
//
// Features:
//   - Typed options: string, int, float, decimal, bool, enum, flag set, UUID,
//     MIME type, address, path, lists, records, expressions, HCL code,
//     protobuf messages, embedded configs and lists of configs
//   - Documented INI templates with commented-out defaults
//   - Binary round-trip through configpb.ConfigMessage
//   - Layered sources: command line, environment, TOML/YAML/JSON/INI files
//   - DEFAULT section and ${section:key} / ${env:VAR} interpolation
//   - Path-annotated errors matching sentinel errors via errors.Is
//   - Struct scanning with `config` tags
//
// Quick Start:
//
//	db := optcfg.New("db")
//	db.MustAdd(
//	    optcfg.Must(optcfg.NewStringOption("host", "Database host", optcfg.Required())),
//	    optcfg.Must(optcfg.NewIntOption("port", "Database port", optcfg.Default(5432))),
//	)
//
//	src, err := optcfg.ParseINIString("[db]\nhost = example.com\n")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := db.LoadConfig(src, ""); err != nil {
//	    log.Fatal(err)
//	}
//	if err := db.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Print(db.GetConfig(false))
//
// Builder:
//
//	cfg, err := optcfg.NewBuilder("service").
//	    WithOptions(name, port).
//	    WithConfigs(db).
//	    WithEnvPrefix("MYAPP_").
//	    WithFile("service.ini").
//	    Build()
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--db.port=9090)
//  2. Environment variables (MYAPP_DB_PORT=9090)
//  3. Configuration file
//  4. Default values
//
// Multi-line values:
//
// Continuation lines are indented. Values whose lines carry leading
// whitespace, or that would otherwise read as comments, are written with a
// vertical bar in front of every line; the bars are removed on input.
//
//	[job]
//	script = | first line
//	   |     indented line
//
// A Config graph is not safe for concurrent use.
package optcfg
