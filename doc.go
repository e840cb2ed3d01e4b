// Package porkpie is the Composition Root for the Porkpie library.
//
// Porkpie composes Portland Common Data Model (PCDM) resources on top of a
// transactional Linked Data Platform repository such as Fedora. A Collection
// or an Object is never a single resource: it comes with the LDP containers
// that make pcdm:hasMember and pcdm:hasFile links work, and every file carries
// a description asserting its use. Porkpie builds those resource groups as a
// unit, inside a repository transaction, so a failure leaves nothing behind.
//
// Features:
//
//   - **Atomic composition**: each call opens, commits or rolls back its own
//     transaction, or participates in one the caller supplies.
//   - **Container discovery**: members and files containers are found in the
//     parent's graph, with no local cache.
//   - **Safe RDF**: Turtle and SPARQL updates are built with escaping, so
//     caller values cannot alter the statements.
//   - **Batches**: YAML manifests compose whole trees in one transaction.
//   - **Hot folders**: files dropped into a directory are attached as they land.
//
// Usage:
//
//	c, err := porkpie.New(porkpie.WithLogger(logger))
//
//	obj, err := c.CreateObject(ctx, core.CreateRequest{})
//	file, err := c.AddVariantFile(ctx, core.VariantPreservationMaster, obj, tiff, "image/tiff", "")
package porkpie
