// Package client is the typed façade over the provider's REST API: token
// lifecycle, authenticated HTTP verbs, and the resource operations built on
// top of them.
package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// RecordType is the closed set of DNS resource record types the provider's
// DNS API accepts.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeALIAS RecordType = "ALIAS"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeMX    RecordType = "MX"
	RecordTypeNS    RecordType = "NS"
	RecordTypePTR   RecordType = "PTR"
	RecordTypeSOA   RecordType = "SOA"
	RecordTypeSRV   RecordType = "SRV"
	RecordTypeTXT   RecordType = "TXT"
)

func (r RecordType) String() string { return string(r) }

// ParseRecordType parses the canonical uppercase record-type string.
func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(s) {
	case RecordTypeA, RecordTypeAAAA, RecordTypeALIAS, RecordTypeCNAME, RecordTypeMX,
		RecordTypeNS, RecordTypePTR, RecordTypeSOA, RecordTypeSRV, RecordTypeTXT:
		return RecordType(s), nil
	default:
		return "", apierr.New(apierr.ParseEnum, "unknown DNS record type "+strconv.Quote(s))
	}
}

const acmeChallengeName = "_acme-challenge"

// DnsEntry is one row of a zone's DNS resource records.
type DnsEntry struct {
	Name    string     `json:"name"`
	Expire  uint32      `json:"expire"`
	Type    RecordType `json:"type"`
	Content string     `json:"content"`
}

// NewAcmeChallenge builds the TXT record this tool publishes for DNS-01
// validation.
func NewAcmeChallenge(expire uint32, content string) DnsEntry {
	return DnsEntry{Name: acmeChallengeName, Expire: expire, Type: RecordTypeTXT, Content: content}
}

// IsAcmeChallenge reports whether e is the ACME challenge TXT record.
func (e DnsEntry) IsAcmeChallenge() bool {
	return e.Type == RecordTypeTXT && e.Name == acmeChallengeName
}

// String renders "<name> <ttl> <type> <content>", the inverse of
// ParseDnsEntry.
func (e DnsEntry) String() string {
	return fmt.Sprintf("%s %d %s %s", e.Name, e.Expire, e.Type, e.Content)
}

// ParseDnsEntry parses "<name> <ttl> <type> <content...>", where content may
// itself contain spaces and extends to the end of the string.
func ParseDnsEntry(s string) (DnsEntry, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return DnsEntry{}, apierr.New(apierr.ParseDnsEntry, "name missing")
	}
	name := fields[0]

	if len(fields) < 2 {
		return DnsEntry{}, apierr.New(apierr.ParseDnsEntry, "ttl missing")
	}
	ttl, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return DnsEntry{}, apierr.Wrap(apierr.ParseDnsEntry, "invalid ttl", err)
	}

	if len(fields) < 3 {
		return DnsEntry{}, apierr.New(apierr.ParseDnsEntry, "record type missing")
	}
	recordType, err := ParseRecordType(fields[2])
	if err != nil {
		return DnsEntry{}, apierr.Wrap(apierr.ParseDnsEntry, "invalid record type", err)
	}

	content := strings.TrimSpace(strings.Join(fields[3:], " "))
	if content == "" {
		return DnsEntry{}, apierr.New(apierr.ParseDnsEntry, "content missing")
	}

	return DnsEntry{Name: name, Expire: uint32(ttl), Type: recordType, Content: content}, nil
}

type dnsEntryList struct {
	DnsEntries []DnsEntry `json:"dnsEntries"`
}

type dnsEntryItem struct {
	DnsEntry DnsEntry `json:"dnsEntry"`
}

// NameServer is one authoritative server assigned to a domain.
type NameServer struct {
	Hostname string  `json:"hostname"`
	IPv4     *string `json:"ipv4,omitempty"`
	IPv6     *string `json:"ipv6,omitempty"`
}

type nameServerList struct {
	NameServers []NameServer `json:"nameservers"`
}

// WhoisContact is a registrant/admin/tech contact attached to a Domain.
type WhoisContact struct {
	ContactType string `json:"type"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
	CompanyKvk  string `json:"companyKvk"`
	CompanyType string `json:"companyType"`
	Street      string `json:"street"`
	Number      string `json:"number"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	PhoneNumber string `json:"phoneNumber"`
	FaxNumber   string `json:"faxNumber"`
	Email       string `json:"email"`
	Country     string `json:"country"`
}

// Domain is a registered domain and its provider-side metadata.
type Domain struct {
	Name               string         `json:"name"`
	Nameservers        []NameServer   `json:"nameservers"`
	Contacts           []WhoisContact `json:"contacts"`
	AuthCode           *string        `json:"authCode,omitempty"`
	IsTransferLocked   bool           `json:"isTransferLocked"`
	RegistrationDate   string         `json:"registrationDate"`
	RenewalDate        string         `json:"renewalDate"`
	IsWhitelabel       bool           `json:"isWhitelabel"`
	CancellationDate   *string        `json:"cancellationDate,omitempty"`
	CancellationStatus *string        `json:"cancellationStatus,omitempty"`
	IsDnsOnly          bool           `json:"isDnsOnly"`
	Tags               []string       `json:"tags"`
	CanEditDns         bool           `json:"canEditDns"`
	HasAutoDns         bool           `json:"hasAutoDns"`
	HasDnsSec          bool           `json:"hasDnsSec"`
	Status             string         `json:"status"`
}

func (d Domain) String() string { return "Domain: " + d.Name }

type domainList struct {
	Domains []Domain `json:"domains"`
}

// Mailbox is an envelope over the provider's e-mail mailbox resource; its
// payload shape beyond identity is provider-defined and not modeled here.
type Mailbox struct {
	Identifier string `json:"identifier"`
	Status     string `json:"status"`
}

// MailForward is an envelope over the provider's mail-forward resource.
type MailForward struct {
	ID         int    `json:"id"`
	LocalPart  string `json:"localPart"`
	DomainName string `json:"domainName"`
	ForwardTo  string `json:"forwardTo"`
	Status     string `json:"status"`
}

// Vps is a virtual private server and its operational status.
type Vps struct {
	Name              string   `json:"name"`
	UUID              string   `json:"uuid"`
	Description       string   `json:"description"`
	ProductName       string   `json:"productName"`
	OperatingSystem   string   `json:"operatingSystem"`
	DiskSize          uint64   `json:"diskSize"`
	MemorySize        uint64   `json:"memorySize"`
	Cpus              uint16   `json:"cpus"`
	Status            string   `json:"status"`
	IPAddress         string   `json:"ipAddress"`
	MacAddress        string   `json:"macAddress"`
	CurrentSnapshots  uint16   `json:"currentSnapshots"`
	MaxSnapshots      uint16   `json:"maxSnapshots"`
	IsLocked          bool     `json:"isLocked"`
	IsBlocked         bool     `json:"isBlocked"`
	IsCustomerLocked  bool     `json:"isCustomerLocked"`
	AvailabilityZone  string   `json:"availabilityZone"`
	Tags              []string `json:"tags"`
}

func (v Vps) String() string { return "Vps: " + v.Name }

type vpsList struct {
	Vpss []Vps `json:"vpss"`
}

type vpsItem struct {
	Vps Vps `json:"vps"`
}

type vpsAction struct {
	Action string `json:"action"`
}

// Invoice is an envelope over the provider's billing/invoice resource.
type Invoice struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Status        string `json:"status"`
}

// Product is an envelope over the provider's orderable product catalog.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AvailabilityZone is an envelope over the provider's datacenter-location
// resource.
type AvailabilityZone struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	IsDefault bool `json:"isDefault"`
}
