package snapshot

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Bucket is the decoding strategy chosen from a column's declared type.
type Bucket int

const (
	BucketFallback Bucket = iota
	BucketBinary
	BucketInteger
	BucketReal
	BucketTemporal
	BucketBoolean
)

func (b Bucket) String() string {
	switch b {
	case BucketBinary:
		return "binary"
	case BucketInteger:
		return "integer"
	case BucketReal:
		return "real"
	case BucketTemporal:
		return "temporal"
	case BucketBoolean:
		return "boolean"
	default:
		return "fallback"
	}
}

// buckets is the single source of truth for declared type -> bucket.
// Keys are normalized with normalizeType.
var buckets = map[string]Bucket{
	"BINARY":              BucketBinary,
	"VARBINARY":           BucketBinary,
	"BINARY VARYING":      BucketBinary,
	"LONGVARBINARY":       BucketBinary,
	"BLOB":                BucketBinary,
	"BINARY LARGE OBJECT": BucketBinary,
	"TINYBLOB":            BucketBinary,
	"MEDIUMBLOB":          BucketBinary,
	"LONGBLOB":            BucketBinary,
	"BYTEA":               BucketBinary,

	"TINYINT":   BucketInteger,
	"SMALLINT":  BucketInteger,
	"MEDIUMINT": BucketInteger,
	"INT":       BucketInteger,
	"INTEGER":   BucketInteger,
	"BIGINT":    BucketInteger,
	"INT2":      BucketInteger,
	"INT4":      BucketInteger,
	"INT8":      BucketInteger,
	"SERIAL":    BucketInteger,
	"BIGSERIAL": BucketInteger,

	"FLOAT":            BucketReal,
	"FLOAT4":           BucketReal,
	"FLOAT8":           BucketReal,
	"REAL":             BucketReal,
	"DOUBLE":           BucketReal,
	"DOUBLE PRECISION": BucketReal,
	"NUMERIC":          BucketReal,
	"DECIMAL":          BucketReal,
	"DEC":              BucketReal,

	"DATE":                        BucketTemporal,
	"DATETIME":                    BucketTemporal,
	"TIMESTAMP":                   BucketTemporal,
	"TIMESTAMPTZ":                 BucketTemporal,
	"TIMESTAMP WITH TIME ZONE":    BucketTemporal,
	"TIMESTAMP WITHOUT TIME ZONE": BucketTemporal,

	"BOOLEAN": BucketBoolean,
	"BOOL":    BucketBoolean,
	"BIT":     BucketBoolean,
}

// normalizeType upper-cases a declared type and drops any size or precision
// suffix, so "varchar(255)" and "DECIMAL(10, 2)" classify by their base name.
func normalizeType(declared string) string {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.Join(strings.Fields(t), " ")
}

// Classify maps a declared column type to its bucket.
func Classify(declared string) Bucket {
	if b, ok := buckets[normalizeType(declared)]; ok {
		return b
	}
	return BucketFallback
}

// Column is the per-scan metadata of one result column.
type Column struct {
	Label    string
	Declared string
	Bucket   Bucket
}

func NewColumn(label, declared string) Column {
	return Column{Label: label, Declared: declared, Bucket: Classify(declared)}
}

// RowDecoder turns raw driver values into Values. A cell that cannot be read
// or cast degrades to null and is counted, it never fails the row.
type RowDecoder struct {
	degraded int
}

func NewRowDecoder() *RowDecoder {
	return &RowDecoder{}
}

// Degraded reports how many cells fell back to null because of a read or
// cast failure.
func (d *RowDecoder) Degraded() int {
	return d.degraded
}

func (d *RowDecoder) Decode(col Column, raw any) Value {
	if raw == nil {
		return Null()
	}

	v, err := decodeBucket(col.Bucket, raw)
	if err != nil {
		d.degraded++
		log.WithFields(log.Fields{
			"column": col.Label,
			"type":   col.Declared,
			"bucket": col.Bucket.String(),
		}).Warnf("cell degraded to null: %v", err)
		return Null()
	}
	if col.Bucket == BucketFallback && v.Kind == KindBase64 {
		log.WithFields(log.Fields{
			"column": col.Label,
			"type":   col.Declared,
		}).Warn("cell holds bytes that are not text, exported as base64")
	}
	return v
}

// DecodeRow decodes one row in column order.
func (d *RowDecoder) DecodeRow(cols []Column, raw []any) Record {
	rec := Record{
		Columns: make([]string, len(cols)),
		Values:  make([]Value, len(cols)),
	}
	for i, col := range cols {
		rec.Columns[i] = col.Label
		rec.Values[i] = d.Decode(col, raw[i])
	}
	return rec
}

func decodeBucket(b Bucket, raw any) (Value, error) {
	switch b {
	case BucketBinary:
		return decodeBinary(raw)
	case BucketInteger:
		return decodeInteger(raw)
	case BucketReal:
		return decodeReal(raw)
	case BucketTemporal:
		return decodeTemporal(raw)
	case BucketBoolean:
		return decodeBoolean(raw)
	default:
		return decodeText(raw), nil
	}
}

// decodeBinary encodes the cell as standard base64. Zero-length blobs encode
// to the empty string; values that are not bytes at all become null.
func decodeBinary(raw any) (Value, error) {
	switch v := raw.(type) {
	case []byte:
		return Base64(base64.StdEncoding.EncodeToString(v)), nil
	case string:
		return Base64(base64.StdEncoding.EncodeToString([]byte(v))), nil
	default:
		return Value{}, fmt.Errorf("cannot read %T as bytes", raw)
	}
}

func decodeInteger(raw any) (Value, error) {
	switch v := raw.(type) {
	case int64:
		return Int(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("value %d overflows int64", v)
		}
		return Int(int64(v)), nil
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt64 || v >= math.MaxInt64 {
			return Value{}, fmt.Errorf("value %v does not fit int64", v)
		}
		return Int(int64(v)), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return Value{}, fmt.Errorf("cannot cast %T to integer", raw)
	}
}

func parseInt(s string) (Value, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Value{}, err
	}
	return Int(n), nil
}

func decodeReal(raw any) (Value, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case []byte:
		return parseDecimal(string(v))
	case string:
		return parseDecimal(v)
	default:
		return Value{}, fmt.Errorf("cannot cast %T to float", raw)
	}
	return finite(f)
}

// parseDecimal reads textual NUMERIC/DECIMAL storage, which some drivers hand
// back unconverted.
func parseDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Value{}, err
	}
	f, _ := d.Float64()
	return finite(f)
}

func finite(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("value %v is not representable in JSON", f)
	}
	return Float(f), nil
}

// temporalLayouts are tried in order for values stored as text. Values with
// no zone are read as UTC.
var temporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func decodeTemporal(raw any) (Value, error) {
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case int64:
		t = time.Unix(v, 0)
	case []byte:
		return parseTemporal(string(v))
	case string:
		return parseTemporal(v)
	default:
		return Value{}, fmt.Errorf("cannot convert %T to an instant", raw)
	}
	return instant(t), nil
}

func parseTemporal(s string) (Value, error) {
	s = strings.TrimSpace(s)
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return instant(t), nil
		}
	}
	return Value{}, fmt.Errorf("no instant in %q", s)
}

// instant renders t in UTC as an ISO-8601 instant, e.g. 2024-03-01T00:00:00Z.
func instant(t time.Time) Value {
	return Text(t.UTC().Format(time.RFC3339Nano))
}

func decodeBoolean(raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return Bool(v), nil
	case int64:
		return Bool(v != 0), nil
	case int:
		return Bool(v != 0), nil
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	default:
		return Value{}, fmt.Errorf("cannot cast %T to boolean", raw)
	}
}

func parseBool(s string) (Value, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return Value{}, err
	}
	return Bool(b), nil
}

// decodeText renders the cell in its default text form. Bytes that are not
// valid UTF-8 would not survive JSON encoding and are base64 encoded instead.
func decodeText(raw any) Value {
	switch v := raw.(type) {
	case string:
		return Text(v)
	case []byte:
		if !utf8.Valid(v) {
			return Base64(base64.StdEncoding.EncodeToString(v))
		}
		return Text(string(v))
	case time.Time:
		return instant(v)
	case fmt.Stringer:
		return Text(v.String())
	default:
		return Text(fmt.Sprint(v))
	}
}
