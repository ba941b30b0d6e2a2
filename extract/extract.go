// Package extract projects a parsed JSON object's bytes into a DebtRec
// per the company/phones/phone/debt rules.
package extract

import (
	"errors"
	"strconv"

	"github.com/minio/simdjson-go"
)

// DebtRec is the transient record produced from one JSON object.
type DebtRec struct {
	Company string
	Phones  []string
	Debt    float64
}

// ErrMalformed covers both invalid UTF-8/JSON and objects whose root
// value is not a JSON object. It is the single error kind this package
// returns; callers count and skip it rather than treat it as fatal.
var ErrMalformed = errors.New("extract: malformed object")

// Extractor parses object bytes with a reused simdjson-go scratch buffer
// to avoid re-allocating the parse tape per call. Not safe for
// concurrent use; callers give each worker its own Extractor.
type Extractor struct {
	reuse *simdjson.ParsedJson
}

// New returns an Extractor ready to parse objects.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses one object's raw bytes and projects a DebtRec.
func (e *Extractor) Extract(raw []byte) (DebtRec, error) {
	pj, err := simdjson.Parse(raw, e.reuse)
	if err != nil {
		return DebtRec{}, ErrMalformed
	}
	e.reuse = pj

	iter := pj.Iter()
	typ, rootIter, err := iter.Root(nil)
	if err != nil {
		return DebtRec{}, ErrMalformed
	}
	if typ != simdjson.TypeObject {
		return DebtRec{}, ErrMalformed
	}
	obj, err := rootIter.Object(nil)
	if err != nil {
		return DebtRec{}, ErrMalformed
	}

	var rec DebtRec
	rec.Company = extractCompany(obj)
	rec.Phones = extractPhones(obj)
	rec.Debt = extractDebt(obj)
	return rec, nil
}

func extractCompany(obj *simdjson.Object) string {
	var elem simdjson.Element
	found := obj.FindKey("company", &elem)
	if found == nil {
		return ""
	}
	switch elem.Type {
	case simdjson.TypeString:
		s, err := elem.Iter.String()
		if err != nil {
			return ""
		}
		return s
	case simdjson.TypeObject:
		companyIter := elem.Iter
		companyObj, err := elem.Iter.Object(nil)
		if err != nil {
			return stringify(&companyIter)
		}
		var nameElem simdjson.Element
		if nameFound := companyObj.FindKey("name", &nameElem); nameFound != nil && nameElem.Type == simdjson.TypeString {
			s, err := nameElem.Iter.String()
			if err == nil {
				return s
			}
		}
		return stringify(&companyIter)
	default:
		return stringify(&elem.Iter)
	}
}

func extractPhones(obj *simdjson.Object) []string {
	var phones []string

	var elem simdjson.Element
	if found := obj.FindKey("phones", &elem); found != nil && elem.Type != simdjson.TypeNull {
		if elem.Type == simdjson.TypeArray {
			arr, err := elem.Iter.Array(nil)
			if err == nil {
				phones = append(phones, stringifyArrayElements(arr)...)
			}
		} else {
			phones = append(phones, stringify(&elem.Iter))
		}
	}

	var phoneElem simdjson.Element
	if found := obj.FindKey("phone", &phoneElem); found != nil && phoneElem.Type != simdjson.TypeNull {
		phones = append(phones, stringify(&phoneElem.Iter))
	}

	return phones
}

func extractDebt(obj *simdjson.Object) float64 {
	var elem simdjson.Element
	found := obj.FindKey("debt", &elem)
	if found == nil {
		return 0
	}
	switch elem.Type {
	case simdjson.TypeInt, simdjson.TypeUint, simdjson.TypeFloat:
		f, err := elem.Iter.Float()
		if err != nil {
			return 0
		}
		return f
	case simdjson.TypeString:
		s, err := elem.Iter.String()
		if err != nil {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// stringifyArrayElements renders every element of arr via stringify,
// walking it the way Array.MarshalJSONBuffer walks a mixed-content
// array (Iter + AdvanceIter, since Array has no ForEach in this
// version of the library).
func stringifyArrayElements(arr *simdjson.Array) []string {
	var out []string
	it := arr.Iter()
	var elem simdjson.Iter
	for {
		t, err := it.AdvanceIter(&elem)
		if err != nil || t == simdjson.TypeNone {
			break
		}
		out = append(out, stringify(&elem))
	}
	return out
}

// stringify renders a value the way §4.B requires: strings verbatim
// (unquoted), everything else as its canonical JSON form.
func stringify(it *simdjson.Iter) string {
	if it.Type() == simdjson.TypeString {
		s, err := it.StringCvt()
		if err == nil {
			return s
		}
	}
	b, err := it.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
