// Package config loads workflow documents.
//
// A document declares actors (type, unique name, ordered properties and
// provider/consumer references) plus optional links. The same document
// can be written in several encodings, chosen by file extension:
//
//   - .yaml, .yml: YAML
//   - .json, .cue: CUE (JSON is valid CUE), checked against a CUE schema
//   - .hcl: HCL with actor "<type>" "<name>" blocks
//   - .xml: <workflow><actor class="" name=""><property name="">value</property>...
//
// Every loader produces the same Document for equivalent input, which is
// validated and converted into an engine.Definition:
//
//	wf, err := config.LoadWorkflow("import.yaml", reg, engine.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return wf.Run(ctx)
//
// Watcher reloads a document whenever it changes on disk.
package config
