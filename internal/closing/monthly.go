package closing

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"gudangkita/backend/internal/domain"
)

const bucketKeyLayout = "2006-01"

// Indonesian month abbreviations, used for period and bucket labels.
var monthsShort = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agt", "Sep", "Okt", "Nov", "Des",
}

func monthShort(m time.Month) string {
	return monthsShort[int(m)-1]
}

// periodLabel renders a period identifier, e.g. "Agt-2026".
func periodLabel(t time.Time) string {
	return fmt.Sprintf("%s-%d", monthShort(t.Month()), t.Year())
}

func bucketLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthShort(t.Month()), t.Year())
}

var rupiah = message.NewPrinter(language.Indonesian)

func formatRp(v float64) string {
	return rupiah.Sprintf("Rp %v", number.Decimal(v))
}

// buildMonthlySeries walks every calendar month between the earliest and
// latest sale date and accumulates per-month income, revenue, nett and loan
// figures. Months without sales keep zeroed buckets. A sale's loan exposure
// is the outstanding balance of the non-paid loan sharing its reference.
func buildMonthlySeries(sales []domain.Sale, loans []domain.Debit) domain.MonthlySeries {
	loanByRef := make(map[string]float64, len(loans))
	for _, debit := range loans {
		if debit.Loan == nil || debit.Status == domain.DebitPaid {
			continue
		}
		if _, ok := loanByRef[debit.Loan.Reference]; ok {
			continue
		}
		loanByRef[debit.Loan.Reference] = debit.Outstanding()
	}

	var earliest, latest time.Time
	for _, sale := range sales {
		when := sale.When()
		if when == nil {
			continue
		}
		if earliest.IsZero() || when.Before(earliest) {
			earliest = *when
		}
		if latest.IsZero() || when.After(latest) {
			latest = *when
		}
	}

	series := domain.MonthlySeries{
		Labels: []string{},
		Datasets: []domain.MonthlyDataset{
			{Label: "Pendapatan", Fill: false, BackgroundColor: "#2f4860", BorderColor: "#2f4860", Tension: 0.4},
			{Label: "Kas", Fill: false, BackgroundColor: "#00bb7e", BorderColor: "#00bb7e", Tension: 0.4},
		},
		Tables: []domain.MonthlyTableRow{},
	}
	if earliest.IsZero() {
		return series
	}

	buckets := map[string]*domain.MonthlyBucket{}
	var order []string
	first := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, time.UTC)
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		key := month.Format(bucketKeyLayout)
		buckets[key] = &domain.MonthlyBucket{Period: bucketLabel(month)}
		order = append(order, key)
	}

	for _, sale := range sales {
		when := sale.When()
		if when == nil {
			continue
		}
		bucket := buckets[when.Format(bucketKeyLayout)]
		if bucket == nil {
			continue
		}
		loan := loanByRef[sale.Reference]
		bucket.Income += sale.FinalPrice
		bucket.Revenue += sale.SubPrice - loan
		bucket.Nett += sale.SubPrice
		bucket.Loan += loan
	}

	for _, key := range order {
		bucket := buckets[key]
		series.Labels = append(series.Labels, bucket.Period)
		series.Datasets[0].Data = append(series.Datasets[0].Data, bucket.Income)
		series.Datasets[1].Data = append(series.Datasets[1].Data, bucket.Revenue)
		series.Tables = append(series.Tables, domain.MonthlyTableRow{
			Period:  bucket.Period,
			Income:  formatRp(bucket.Income),
			Revenue: formatRp(bucket.Revenue),
			Nett:    formatRp(bucket.Nett),
			Loan:    formatRp(bucket.Loan),
		})
	}

	// The printable datasheet reads newest month first.
	for i, j := 0, len(series.Tables)-1; i < j; i, j = i+1, j-1 {
		series.Tables[i], series.Tables[j] = series.Tables[j], series.Tables[i]
	}
	return series
}
