package core

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/aretw0/porkpie/pkg/rdf"
	"github.com/aretw0/porkpie/pkg/vocab"
)

// Checksum returns the hex SHA-1 digest the repository verifies content against.
func Checksum(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// modelDocument is the minimal description of a new Collection or Object.
func modelDocument(modelType string) (string, error) {
	return rdf.NewDocument().
		Prefix("pcdm", vocab.PCDM).
		Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(modelType)).
		Turtle()
}

// membersContainerDocument describes the container whose proxies make their
// targets pcdm:hasMember of parent.
func membersContainerDocument(parent string) (string, error) {
	return rdf.NewDocument().
		Prefix("ldp", vocab.LDP).
		Prefix("pcdm", vocab.PCDM).
		Prefix("ore", vocab.ORE).
		Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(vocab.IndirectContainer)).
		Add(rdf.Self, rdf.IRI(vocab.MembershipResource), rdf.IRI(parent)).
		Add(rdf.Self, rdf.IRI(vocab.HasMemberRelation), rdf.IRI(vocab.HasMember)).
		Add(rdf.Self, rdf.IRI(vocab.InsertedContentRelation), rdf.IRI(vocab.ProxyFor)).
		Turtle()
}

// filesContainerDocument describes the container whose children are
// pcdm:hasFile of parent.
func filesContainerDocument(parent string) (string, error) {
	return rdf.NewDocument().
		Prefix("ldp", vocab.LDP).
		Prefix("pcdm", vocab.PCDM).
		Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(vocab.DirectContainer)).
		Add(rdf.Self, rdf.IRI(vocab.MembershipResource), rdf.IRI(parent)).
		Add(rdf.Self, rdf.IRI(vocab.HasMemberRelation), rdf.IRI(vocab.HasFile)).
		Turtle()
}

func proxyDocument(parent, child string) (string, error) {
	return rdf.NewDocument().
		Prefix("ore", vocab.ORE).
		Add(rdf.Self, rdf.IRI(vocab.ProxyFor), rdf.IRI(child)).
		Add(rdf.Self, rdf.IRI(vocab.ProxyIn), rdf.IRI(parent)).
		Turtle()
}

// fileUpdate asserts pcdm:File, the variant's use type and, when set, the
// standard the content conforms to.
func fileUpdate(variant FileVariant, conformsTo string) (string, error) {
	doc := rdf.NewDocument().Prefix("pcdm", vocab.PCDM)
	useType := variant.UseType()
	if useType != "" {
		doc.Prefix("pcdmuse", vocab.PCDMUse)
	}
	if conformsTo != "" {
		doc.Prefix("dc", vocab.DCTerms)
	}

	doc.Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(vocab.File))
	if useType != "" {
		doc.Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(useType))
	}
	if conformsTo != "" {
		doc.Add(rdf.Self, rdf.IRI(vocab.ConformsTo), rdf.Literal(conformsTo))
	}
	return doc.InsertData()
}
