// Package vocab holds the namespace IRIs used to describe PCDM resources
// inside an LDP repository.
package vocab

// Namespaces.
const (
	PCDM    = "http://pcdm.org/models#"
	PCDMUse = "http://pcdm.org/use#"
	LDP     = "http://www.w3.org/ns/ldp#"
	ORE     = "http://www.openarchives.org/ore/terms/"
	DCTerms = "http://purl.org/dc/terms/"
	RDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	Fedora  = "http://fedora.info/definitions/v4/repository#"
)

// PCDM model terms.
const (
	Collection = PCDM + "Collection"
	Object     = PCDM + "Object"
	File       = PCDM + "File"
	HasMember  = PCDM + "hasMember"
	HasFile    = PCDM + "hasFile"
)

// PCDM use types, one per file variant.
const (
	PreservationMasterFile = PCDMUse + "PreservationMasterFile"
	ThumbnailImage         = PCDMUse + "ThumbnailImage"
	ServiceFile            = PCDMUse + "ServiceFile"
	ExtractedText          = PCDMUse + "ExtractedText"
	Transcript             = PCDMUse + "Transcript"
	OriginalFile           = PCDMUse + "OriginalFile"
	IntermediateFile       = PCDMUse + "IntermediateFile"
)

// LDP terms.
const (
	IndirectContainer       = LDP + "IndirectContainer"
	DirectContainer         = LDP + "DirectContainer"
	BasicContainer          = LDP + "BasicContainer"
	NonRDFSource            = LDP + "NonRDFSource"
	Contains                = LDP + "contains"
	MembershipResource      = LDP + "membershipResource"
	HasMemberRelation       = LDP + "hasMemberRelation"
	InsertedContentRelation = LDP + "insertedContentRelation"
	MemberSubject           = LDP + "MemberSubject"
)

// ORE proxy terms.
const (
	ProxyFor = ORE + "proxyFor"
	ProxyIn  = ORE + "proxyIn"
)

// Misc terms.
const (
	Type        = RDF + "type"
	ConformsTo  = DCTerms + "conformsTo"
	Title       = DCTerms + "title"
	Description = DCTerms + "description"
)

// EmbedResources asks the repository to inline child resources in a
// representation so containers are visible without a second request.
const EmbedResources = `return=representation; include="` + Fedora + `EmbedResources"`

// MetadataSuffix addresses the RDF description of a binary resource.
const MetadataSuffix = "/fcr:metadata"
