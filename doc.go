// Package vespa manages document collections whose documents import
// attribute values from parent collections through reference fields.
//
// A child collection declares reference fields into parent collections. For
// every importable attribute of a parent, the child gets an imported
// attribute: reading it for a child lid follows the child's reference to the
// parent document and returns the parent's value, without copying data.
//
// # Quick Start
//
//	ctx := context.Background()
//	registry := vespa.NewRegistry(vespa.WithLogger(vespa.NewTextLogger(slog.LevelInfo)))
//
//	company := attribute.NewManager("company")
//	name, _ := company.AddAttribute(attribute.Config{Name: "name", Type: metadata.FieldTypeString, Importable: true})
//	companies, _ := registry.Create(ctx, "company", company)
//
//	person := attribute.NewManager("person")
//	companyID, _ := person.AddReference("company_id")
//	persons, _ := registry.Create(ctx, "person", person,
//	    vespa.WithReferenceFields(reference.ReferenceField{Name: "company_id", Target: "company"}))
//
//	lid, _ := companies.Put(0xAC)
//	_ = name.Set(lid, metadata.String("Acme"), time.Now())
//	child, _ := persons.Put(0x101)
//	_ = companyID.Update(child, 0xAC)
//
//	guard, _ := persons.Acquire()
//	defer guard.Release()
//	imported, _ := guard.Imported("name")
//	v, ok := imported.Value(child) // "Acme", true
//
// # Reconfiguration
//
// Attribute managers are replaced with DocumentDB.Reconfigure. The new
// manager is resolved and published first; readers of the previous epoch are
// drained; the previous manager is torn down; and finally every child that
// imports from the collection is re-resolved so that no import outlives the
// manager it reads from.
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics are reported to a
// MetricsObserver; package observability provides a Prometheus implementation.
package vespa
