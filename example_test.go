package vespa_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cnsky2016/vespa"
	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/reference"
)

// Example_importedAttribute demonstrates reading a parent attribute through a
// child's reference field.
func Example_importedAttribute() {
	ctx := context.Background()
	registry := vespa.NewRegistry()
	defer registry.Close(ctx)

	company := attribute.NewManager("company")
	name, _ := company.AddAttribute(attribute.Config{Name: "name", Type: metadata.FieldTypeString, Importable: true})
	companies, err := registry.Create(ctx, "company", company)
	if err != nil {
		log.Fatal(err)
	}

	person := attribute.NewManager("person")
	companyID, _ := person.AddReference("company_id")
	persons, err := registry.Create(ctx, "person", person,
		vespa.WithReferenceFields(reference.ReferenceField{Name: "company_id", Target: "company"}))
	if err != nil {
		log.Fatal(err)
	}

	lid, _ := companies.Put(0xAC)
	_ = name.Set(lid, metadata.String("Acme"), time.Now())
	child, _ := persons.Put(0x101)
	_ = companyID.Update(child, 0xAC)

	guard, err := persons.Acquire()
	if err != nil {
		log.Fatal(err)
	}
	defer guard.Release()

	imported, _ := guard.Imported("name")
	v, ok := imported.Value(child)
	fmt.Println(v.StringValue(), ok)
	// Output: Acme true
}

// Example_reconfigure demonstrates swapping the attribute manager of a parent
// collection while a child imports from it.
func Example_reconfigure() {
	ctx := context.Background()
	metrics := &vespa.BasicMetricsObserver{}
	registry := vespa.NewRegistry(vespa.WithMetricsObserver(metrics))
	defer registry.Close(ctx)

	company := attribute.NewManager("company")
	_, _ = company.AddAttribute(attribute.Config{Name: "name", Type: metadata.FieldTypeString, Importable: true})
	companies, _ := registry.Create(ctx, "company", company)

	person := attribute.NewManager("person")
	_, _ = person.AddReference("company_id")
	_, _ = registry.Create(ctx, "person", person,
		vespa.WithReferenceFields(reference.ReferenceField{Name: "company_id", Target: "company"}))

	if err := companies.Reconfigure(ctx, company.Derive()); err != nil {
		log.Fatal(err)
	}

	stats := metrics.GetStats()
	fmt.Println("children rebound:", stats.ChildrenRebound)
	fmt.Println("imports invalidated:", stats.ImportsInvalidated)
	// Output:
	// children rebound: 1
	// imports invalidated: 1
}
