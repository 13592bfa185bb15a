// File: lixenwraith/configurations/doc.go

// Package configurations lets a program declare its configurable properties,
// optionally typed, nested and coerced, and build configurations that are
// writeable only while a configure function runs.
//
// Features:
//   - Strict configurations with declared properties and namespaces
//   - Arbitrary configurations accepting any property, maps become namespaces
//   - Type assertions, transforms and not-configured callbacks per property
//   - Configuration methods evaluated against a node
//   - Atomic FromHash merges rejecting ambiguous keys such as "p1" and Symbol("p1")
//   - TOML, JSON and YAML files, environment variables, command line and pflag sources
//   - A host holding one published configuration, rebuilt from a watched file on change
//
// Quick Start:
//
//	host := configurations.NewBuilder().
//	    Configurable("a").
//	    ConfigurableType(configurations.TypeOf[string](), configurations.Nest("nested", configurations.Leaf("b"))).
//	    MustBuild()
//
//	cfg, err := host.Configure(func(c *configurations.Configuration) error {
//	    if err := c.Set("a", 1); err != nil {
//	        return err
//	    }
//	    return c.SetPath("nested.b", "x")
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.ToHash() // map[a:1 nested:map[b:x]]
//	cfg.SetPath("nested.b", "y") // NotWriteableError
//
// Undeclared reads:
// Strict configurations always fail reads of undeclared properties with an
// UnknownPropertyError. Arbitrary configurations return nil for unset
// properties unless the builder selects ReadAsError.
//
// Thread Safety:
// Configure and Configuration may be called concurrently. A configuration is
// read-only once Configure returns it and may then be read from any goroutine.
package configurations
