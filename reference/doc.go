// Package reference resolves imported attributes for a child collection.
//
// A child collection declares reference fields into parent collections. For
// each reference field the DocumentDBResolver finds the parent in a
// ParentRegistry and builds one ImportedAttribute per importable parent
// attribute. An ImportedAttribute reads a child lid by following the child's
// reference attribute to a parent lid and reading the parent's attribute
// there:
//
//	childLid -> Reference.TargetLid -> parentLid -> Accessor.Read
//
// # Lifecycle
//
// The owning collection calls Resolve on every reconfiguration and publishes
// the returned ImportedAttributesRepo to readers. Once no reader can reach an
// attribute manager any more, the owner calls Teardown with it. From then on
// every import bound to that manager reports unavailable instead of reading
// storage that is about to be released.
//
// The resolver does not wait for readers. Draining readers before Teardown is
// the caller's job.
//
// # Carry-over
//
// An import whose inputs did not change between the old and the new attribute
// manager keeps its binding, so Teardown of the old child manager does not
// invalidate it.
package reference
