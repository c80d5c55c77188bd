// Package conf implements layered TOML configuration loading for edged.
//
// # Usage
//
// Locate the sources from the environment, read and merge them, then decode
// the merged document into one or more typed targets:
//
//	cs := conf.SourceFromEnv("/etc/aziot/edged/config.toml")
//	doc, err := cs.Read()
//	if err != nil {
//	    return err
//	}
//	err = conf.Decode(doc, conf.DecodeOptions{}, &base, &backend)
//
// # Load Order
//
// A document is assembled from three layers:
//
//  1. Embedded defaults (ConfigSource.Defaults), if any
//  2. Main config file: $AZIOT_EDGED_CONFIG or the caller's default path
//  3. Drop-in files: $AZIOT_EDGED_CONFIG_DIR/*.toml or /etc/aziot/edged/config.d/*.toml,
//     in lexicographic order
//
// The main file must exist. A missing drop-in directory means no drop-ins.
//
// # Merging
//
// Tables merge key by key, so a drop-in can override a single nested value.
// Every other value, arrays included, is replaced by the last layer that sets
// it.
//
// # Decoding
//
// Decode hands the whole merged document to every target, which lets several
// structs share one flat key namespace. Targets are DTOs with pointer fields:
// a nil pointer means "not set", which Required and Default turn into a
// missing-field report or a default value.
package conf
