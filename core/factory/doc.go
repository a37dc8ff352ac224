// Package factory provides a generic registry that instantiates modules from
// configuration. A module is described by a type name and a map of raw
// settings; factories decode the settings into typed structs.
//
//	reg := factory.NewRegistry[metrics.RunSink]()
//	reg.Register("prometheus", func(conf map[string]any) (metrics.RunSink, error) {
//	    var c struct{ Namespace string `json:"namespace"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newPromSink(c.Namespace), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "prometheus"})
package factory
