package service

import (
	"fmt"
	"time"

	"github.com/shreeji-gems/diamond-api/internal/models"
	"github.com/shreeji-gems/diamond-api/pkg/export"
)

// exportColumn describes one selectable ledger column. The slice below fixes
// the canonical order; rendered files always follow it no matter how the
// request listed its keys.
type exportColumn struct {
	Key    string
	Header string
	Value  func(models.LotRecord) string
	Total  func(models.LotTotals) string
}

var exportColumns = []exportColumn{
	{Key: "uniqueId", Header: "No", Value: func(r models.LotRecord) string { return fmt.Sprintf("%d", r.UniqueID) }},
	{Key: "date", Header: "Date", Value: func(r models.LotRecord) string { return formatDay(&r.Date) }},
	{Key: "partyName", Header: "Party", Value: func(r models.LotRecord) string { return r.PartyName }},
	{Key: "kapanNumber", Header: "Kapan No", Value: func(r models.LotRecord) string { return r.KapanNumber }},
	{Key: "pktNumber", Header: "PKT No", Value: func(r models.LotRecord) string { return r.PKTNumber }},
	{
		Key: "issueWeight", Header: "Issue Weight",
		Value: func(r models.LotRecord) string { return formatWeight(r.IssueWeight) },
		Total: func(t models.LotTotals) string { return formatWeight(t.TotalIssueWeight) },
	},
	{
		Key: "expectedWeight", Header: "Expected Weight",
		Value: func(r models.LotRecord) string { return formatWeight(r.ExpectedWeight) },
		Total: func(t models.LotTotals) string { return formatWeight(t.TotalExpectedWeight) },
	},
	{
		Key: "polishWeight", Header: "Polish Weight",
		Value: func(r models.LotRecord) string { return formatWeightPtr(r.PolishWeight) },
		Total: func(t models.LotTotals) string { return formatWeight(t.TotalPolishWeight) },
	},
	{
		Key: "hphtWeight", Header: "HPHT Weight",
		Value: func(r models.LotRecord) string { return formatWeightPtr(r.HPHTWeight) },
		Total: func(t models.LotTotals) string { return formatWeight(t.TotalHphtWeight) },
	},
	{Key: "shapeName", Header: "Shape", Value: func(r models.LotRecord) string { return deref(r.ShapeName) }},
	{Key: "colorName", Header: "Color", Value: func(r models.LotRecord) string { return deref(r.ColorName) }},
	{Key: "clarityName", Header: "Clarity", Value: func(r models.LotRecord) string { return deref(r.ClarityName) }},
	{Key: "statusName", Header: "Status", Value: func(r models.LotRecord) string { return deref(r.StatusName) }},
	{Key: "paymentStatusName", Header: "Payment Status", Value: func(r models.LotRecord) string { return deref(r.PaymentStatusName) }},
	{Key: "polishDate", Header: "Polish Date", Value: func(r models.LotRecord) string { return formatDay(r.PolishDate) }},
	{Key: "hphtDate", Header: "HPHT Date", Value: func(r models.LotRecord) string { return formatDay(r.HPHTDate) }},
	{Key: "rate", Header: "Rate", Value: func(r models.LotRecord) string { return formatMoneyPtr(r.Rate) }},
	{
		Key: "amount", Header: "Amount",
		Value: func(r models.LotRecord) string { return formatMoneyPtr(r.Amount) },
		Total: func(t models.LotTotals) string { return formatMoney(t.TotalAmount) },
	},
	{Key: "remark", Header: "Remark", Value: func(r models.LotRecord) string { return deref(r.Remark) }},
}

var exportColumnIndex = func() map[string]int {
	index := make(map[string]int, len(exportColumns))
	for i, column := range exportColumns {
		index[column.Key] = i
	}
	return index
}()

// buildLedgerDataset lays the selected columns out in canonical order and
// appends a Totals row when any selected column is summable.
func buildLedgerDataset(rows []models.LotRecord, totals *models.LotTotals, selected []string) export.Dataset {
	chosen := make(map[string]struct{}, len(selected))
	for _, key := range selected {
		chosen[key] = struct{}{}
	}

	columns := make([]exportColumn, 0, len(selected))
	for _, column := range exportColumns {
		if _, ok := chosen[column.Key]; ok {
			columns = append(columns, column)
		}
	}

	headers := make([]string, 0, len(columns))
	for _, column := range columns {
		headers = append(headers, column.Header)
	}

	dataRows := make([]map[string]string, 0, len(rows)+1)
	for _, row := range rows {
		record := make(map[string]string, len(columns))
		for _, column := range columns {
			record[column.Header] = column.Value(row)
		}
		dataRows = append(dataRows, record)
	}

	if totals != nil {
		summable := false
		for _, column := range columns {
			if column.Total != nil {
				summable = true
				break
			}
		}
		if summable {
			totalRow := make(map[string]string, len(columns))
			for i, column := range columns {
				switch {
				case column.Total != nil:
					totalRow[column.Header] = column.Total(*totals)
				case i == 0:
					totalRow[column.Header] = "Total"
				default:
					totalRow[column.Header] = ""
				}
			}
			dataRows = append(dataRows, totalRow)
		}
	}

	return export.Dataset{Headers: headers, Rows: dataRows}
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("02-01-2006")
}

func formatWeight(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatWeightPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatWeight(*v)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatMoneyPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatMoney(*v)
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
