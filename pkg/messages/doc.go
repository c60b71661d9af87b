// Package messages renders validation error codes into user-facing text.
//
// A Catalog maps languages to message templates loaded through an Adapter
// (in-memory, a JSON/YAML file, or an fs.FS such as embed.FS). Default()
// returns the built-in English catalog, and further adapters can be layered
// on top with Load.
//
//	catalog := messages.Default()
//	_ = catalog.Load(ctx, messages.NewFileAdapter("messages.yaml"))
//	engine := validation.NewEngine(reg, validation.WithMessageResolver(catalog.Resolver("de-AT")))
//
// Lookups fall back from the requested language to its base language and then
// to the catalog default. Templates use %{name} placeholders filled from the
// error params, and %{field} expands to the field path.
package messages
