package testutil

import (
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/source"
)

// Tx builds a transaction record. An empty country is left out.
func Tx(id, account, date string, amount any, country string) model.Record {
	r := model.Record{
		model.FieldTransactionID: id,
		model.FieldAccountID:     account,
		model.FieldDate:          date,
		model.FieldAmount:        amount,
	}
	if country != "" {
		r[model.FieldCountry] = country
	}
	return r
}

// Inline wraps records in an inline source descriptor.
func Inline(name string, records ...model.Record) source.Descriptor {
	return source.Descriptor{Kind: source.KindInline, Name: name, Records: records}
}

// IDs lists the ids of records in order.
func IDs(records []model.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID()
	}
	return ids
}
