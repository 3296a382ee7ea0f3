// Package generate implements the synthetic response generator: given a
// learned schema descriptor (and optionally the inbound request body for
// the echo rule), it produces a plausible JSON value without ever calling
// an upstream.
package generate

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
)

// semanticType is the field-name heuristic bucket a field name resolves to.
type semanticType int

const (
	semUnknown semanticType = iota
	semUUID
	semID
	semEmail
	semPhone
	semFirstName
	semLastName
	semFullName
	semImageURL
	semURL
	semDatetime
	semMoney
	semCurrency
	semPositiveInt
	semPercentage
	semTitle
	semDescription
	semParagraph
	semTag
	semStatus
	semBoolTrue
	semBoolFalse
	semCity
	semState
	semCountry
	semZip
	semAddress
	semToken
	semHash
	semColor
	semIPv4
)

// fieldPattern holds the substrings that route a field name to a semantic
// type. Order matters: first match wins. Roughly 40 entries, grounded on
// the original learner's _FIELD_PATTERNS table.
type fieldPattern struct {
	patterns []string
	sem      semanticType
}

var fieldPatterns = []fieldPattern{
	{[]string{"uuid"}, semUUID},
	{[]string{"_id", "id"}, semID},
	{[]string{"email", "e_mail", "mail"}, semEmail},
	{[]string{"phone", "mobile", "tel", "fax"}, semPhone},
	{[]string{"first_name", "firstname", "fname"}, semFirstName},
	{[]string{"last_name", "lastname", "lname", "surname"}, semLastName},
	{[]string{"full_name", "fullname", "display_name", "username", "user_name", "author", "owner", "name"}, semFullName},
	{[]string{"avatar", "photo", "image", "img", "thumbnail", "thumb", "picture", "logo", "icon", "banner"}, semImageURL},
	{[]string{"url", "link", "href", "website", "homepage", "uri", "endpoint", "callback"}, semURL},
	{[]string{"created_at", "createdat", "created", "date_created", "registered", "joined"}, semDatetime},
	{[]string{"updated_at", "updatedat", "modified", "modified_at", "last_seen", "last_login"}, semDatetime},
	{[]string{"expires", "expiry", "expires_at", "expiration", "valid_until", "due_date", "deadline"}, semDatetime},
	{[]string{"date", "time", "timestamp", "datetime"}, semDatetime},
	{[]string{"price", "cost", "amount", "total", "subtotal", "tax", "fee", "balance", "salary"}, semMoney},
	{[]string{"currency", "currency_code"}, semCurrency},
	{[]string{"count", "quantity", "qty", "num", "number", "followers", "following", "likes", "views", "rating", "score", "rank", "level", "age", "year"}, semPositiveInt},
	{[]string{"percent", "percentage", "ratio", "rate"}, semPercentage},
	{[]string{"title", "subject", "headline", "heading"}, semTitle},
	{[]string{"description", "desc", "summary", "abstract", "excerpt", "bio", "about"}, semDescription},
	{[]string{"body", "content", "text", "message", "comment", "note", "details", "instructions"}, semParagraph},
	{[]string{"tag", "label", "category", "kind", "group", "role"}, semTag},
	{[]string{"status", "state", "phase"}, semStatus},
	{[]string{"active", "enabled", "visible", "published", "verified", "confirmed", "approved", "is_active", "is_enabled"}, semBoolTrue},
	{[]string{"deleted", "archived", "disabled", "blocked", "banned", "suspended", "is_deleted", "is_archived"}, semBoolFalse},
	{[]string{"city"}, semCity},
	{[]string{"province", "region"}, semState},
	{[]string{"country", "country_code", "nation"}, semCountry},
	{[]string{"zip", "zipcode", "zip_code", "postal", "postal_code", "postcode"}, semZip},
	{[]string{"address", "street", "address_line"}, semAddress},
	{[]string{"token", "access_token", "refresh_token", "api_key", "apikey", "secret", "session_id", "jwt"}, semToken},
	{[]string{"hash", "checksum", "md5", "sha256", "sha1", "digest", "fingerprint"}, semHash},
	{[]string{"color", "colour", "hex_color", "bg_color"}, semColor},
	{[]string{"ip", "ip_address", "ipv4", "remote_addr", "client_ip"}, semIPv4},
}

func detectSemanticType(fieldName string) semanticType {
	lower := strings.ToLower(strings.TrimSpace(fieldName))
	for _, fp := range fieldPatterns {
		for _, p := range fp.patterns {
			if lower == p || strings.HasSuffix(lower, p) || strings.HasPrefix(lower, p) ||
				strings.Contains(lower, "_"+p) || strings.Contains(lower, p+"_") {
				return fp.sem
			}
		}
	}
	return semUnknown
}

// Generator produces synthetic JSON values from learned schema descriptors.
// With a nil Rand it draws from math/rand's global functions, which are
// internally synchronized, so it is safe for concurrent use; with Rand set
// it is not, since a *rand.Rand is unsynchronized.
type Generator struct {
	Rand *rand.Rand
}

// New returns a Generator that draws from math/rand's global source. Tests
// that need deterministic output should set Rand directly.
func New() *Generator {
	return &Generator{}
}

// Generate produces a JSON value from a descriptor. If request is non-zero,
// the echo rule applies: a field with a matching name and compatible
// primitive type anywhere in the request body — at any nesting depth, not
// just the position matching the response schema — is emitted verbatim
// instead of a synthetic value.
func (g *Generator) Generate(d *schema.Descriptor, request jsonval.Value) jsonval.Value {
	return g.generateNamed(d, "", request)
}

func (g *Generator) generateNamed(d *schema.Descriptor, fieldName string, root jsonval.Value) jsonval.Value {
	if d == nil {
		return jsonval.Null()
	}

	if echo, ok := g.echo(fieldName, d, root); ok {
		return echo
	}

	switch d.Kind {
	case schema.KindNull:
		return jsonval.Null()
	case schema.KindBool:
		return jsonval.Bool(g.smartValue(fieldName, d).B)
	case schema.KindNumber:
		return g.smartValue(fieldName, d)
	case schema.KindString:
		return g.smartValue(fieldName, d)
	case schema.KindArray:
		n := 1 + g.intn(3)
		if d.Length.Max > 0 && d.Length.Max < n {
			n = d.Length.Max
		}
		if n < 1 {
			n = 1
		}
		out := make([]jsonval.Value, n)
		for i := range out {
			out[i] = g.generateNamed(d.Element, fieldName, root)
		}
		return jsonval.Array(out)
	case schema.KindObject:
		out := make(map[string]jsonval.Value, len(d.Fields))
		for name, fd := range d.Fields {
			out[name] = g.generateNamed(fd, name, root)
		}
		return jsonval.Object(out)
	case schema.KindUnion:
		return g.generateUnion(d, fieldName, root)
	default:
		return jsonval.Null()
	}
}

// echo implements the echo rule: a request field with the same name and a
// compatible primitive kind, found anywhere in the request body, is
// emitted instead of a synthetic value.
func (g *Generator) echo(fieldName string, d *schema.Descriptor, root jsonval.Value) (jsonval.Value, bool) {
	if fieldName == "" || root.Kind == jsonval.KindNull {
		return jsonval.Value{}, false
	}
	match, ok := findField(root, fieldName)
	if !ok || !leafCompatible(d, match) {
		return jsonval.Value{}, false
	}
	return match, true
}

// findField searches a JSON value depth-first for the first field named
// name, descending into objects and arrays regardless of how deep it sits
// relative to where the response schema places the same name.
func findField(v jsonval.Value, name string) (jsonval.Value, bool) {
	switch v.Kind {
	case jsonval.KindObject:
		if child, ok := v.Get(name); ok {
			return child, true
		}
		for _, key := range v.SortedKeys() {
			child, _ := v.Get(key)
			if found, ok := findField(child, name); ok {
				return found, true
			}
		}
	case jsonval.KindArray:
		for _, elem := range v.Arr {
			if found, ok := findField(elem, name); ok {
				return found, true
			}
		}
	}
	return jsonval.Value{}, false
}

// leafCompatible reports whether a request-body value could stand in for a
// descriptor's kind: only primitive kinds are echoed, and the kinds must
// match (or the descriptor is nullable and the value is null).
func leafCompatible(d *schema.Descriptor, v jsonval.Value) bool {
	if !v.IsPrimitive() {
		return false
	}
	switch d.Kind {
	case schema.KindBool:
		return v.Kind == jsonval.KindBool
	case schema.KindNumber:
		return v.Kind == jsonval.KindNumber
	case schema.KindString:
		return v.Kind == jsonval.KindString
	case schema.KindNull:
		return v.Kind == jsonval.KindNull
	default:
		return false
	}
}

func (g *Generator) generateUnion(d *schema.Descriptor, fieldName string, request jsonval.Value) jsonval.Value {
	if len(d.Variants) == 0 {
		return jsonval.Null()
	}
	// Deterministic seeded pick: first non-null branch. Otherwise weighted
	// by observation count.
	for _, v := range d.Variants {
		if v.Kind != schema.KindNull {
			if g.Rand != nil {
				return g.generateNamed(v, fieldName, request)
			}
			break
		}
	}
	total := 0
	for _, v := range d.Variants {
		total += v.Count
	}
	if total == 0 {
		return g.generateNamed(d.Variants[0], fieldName, request)
	}
	pick := g.intn(total)
	acc := 0
	for _, v := range d.Variants {
		acc += v.Count
		if pick < acc {
			return g.generateNamed(v, fieldName, request)
		}
	}
	return g.generateNamed(d.Variants[len(d.Variants)-1], fieldName, request)
}

func (g *Generator) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if g.Rand != nil {
		return g.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (g *Generator) float64() float64 {
	if g.Rand != nil {
		return g.Rand.Float64()
	}
	return rand.Float64()
}

func (g *Generator) pick(pool []string) string {
	return pool[g.intn(len(pool))]
}

// smartValue applies the field-name heuristic table, falling back to a
// generic random value of the descriptor's kind.
func (g *Generator) smartValue(fieldName string, d *schema.Descriptor) jsonval.Value {
	switch detectSemanticType(fieldName) {
	case semUUID, semToken:
		return jsonval.String(g.randomUUID())
	case semID:
		if d.Kind == schema.KindNumber {
			return jsonval.Number(float64(1000 + g.intn(9000)))
		}
		return jsonval.String(g.randomUUID())
	case semEmail:
		return jsonval.String(fmt.Sprintf("%s.%s@%s", strings.ToLower(g.pick(firstNames)), strings.ToLower(g.pick(lastNames)), g.pick(emailDomains)))
	case semPhone:
		return jsonval.String(fmt.Sprintf("+1%010d", 1000000000+g.intn(899999999)))
	case semFirstName:
		return jsonval.String(g.pick(firstNames))
	case semLastName:
		return jsonval.String(g.pick(lastNames))
	case semFullName:
		return jsonval.String(fmt.Sprintf("%s %s", g.pick(firstNames), g.pick(lastNames)))
	case semImageURL:
		return jsonval.String(fmt.Sprintf("https://example.com/images/%d.png", 100+g.intn(900)))
	case semURL:
		return jsonval.String(fmt.Sprintf("https://example.com/resource/%d", 100+g.intn(900)))
	case semDatetime:
		return jsonval.String(time.Now().Add(-time.Duration(g.intn(720)) * time.Hour).UTC().Format(time.RFC3339))
	case semMoney:
		return jsonval.Number(roundCents(1 + g.float64()*9998))
	case semCurrency:
		return jsonval.String(g.pick([]string{"USD", "EUR", "GBP", "JPY"}))
	case semPositiveInt:
		return jsonval.Number(float64(g.intn(100)))
	case semPercentage:
		return jsonval.Number(roundCents(g.float64() * 100))
	case semTitle:
		return jsonval.String(g.pick(titles))
	case semDescription, semParagraph:
		return jsonval.String(g.pick(descriptions))
	case semTag:
		return jsonval.String(g.pick(tags))
	case semStatus:
		return jsonval.String(g.pick(statuses))
	case semBoolTrue:
		return jsonval.Bool(true)
	case semBoolFalse:
		return jsonval.Bool(false)
	case semCity:
		return jsonval.String(g.pick(cities))
	case semState:
		return jsonval.String(g.pick([]string{"CA", "NY", "TX", "FL", "WA"}))
	case semCountry:
		return jsonval.String(g.pick(countries))
	case semZip:
		return jsonval.String(fmt.Sprintf("%05d", g.intn(99999)))
	case semAddress:
		return jsonval.String(fmt.Sprintf("%d %s", 100+g.intn(9000), g.pick(streets)))
	case semHash:
		return jsonval.String(g.randomHex(32))
	case semColor:
		return jsonval.String(g.pick([]string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7"}))
	case semIPv4:
		return jsonval.String(fmt.Sprintf("%d.%d.%d.%d", g.intn(255), g.intn(255), g.intn(255), g.intn(255)))
	default:
		return g.genericValue(d)
	}
}

func (g *Generator) genericValue(d *schema.Descriptor) jsonval.Value {
	switch d.Kind {
	case schema.KindBool:
		return jsonval.Bool(g.intn(2) == 1)
	case schema.KindNumber:
		return jsonval.Number(float64(g.intn(1000)))
	case schema.KindString:
		return jsonval.String(g.randomAlnum(6 + g.intn(7)))
	default:
		return jsonval.Null()
	}
}

func roundCents(v float64) float64 {
	return float64(int(v*100)) / 100
}

const alnumAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (g *Generator) randomAlnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnumAlphabet[g.intn(len(alnumAlphabet))]
	}
	return string(b)
}

const hexAlphabet = "0123456789abcdef"

func (g *Generator) randomHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexAlphabet[g.intn(len(hexAlphabet))]
	}
	return string(b)
}

func (g *Generator) randomUUID() string {
	b := make([]byte, 16)
	for i := range b {
		b[i] = byte(g.intn(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
