package address

import "strings"

// RequiredFields are the address fields that count towards completion, in
// form order. Complemento is optional and never counts.
var RequiredFields = []string{"cep", "uf", "cidade", "bairro", "rua", "numero"}

// Draft is a partially filled address form.
type Draft struct {
	CEP         string `json:"cep"`
	UF          string `json:"uf"`
	Cidade      string `json:"cidade"`
	Bairro      string `json:"bairro"`
	Rua         string `json:"rua"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
}

// ProgressReport describes how much of a Draft is filled in.
type ProgressReport struct {
	Percentage int      `json:"percentage"`
	Filled     int      `json:"filled"`
	Total      int      `json:"total"`
	Missing    []string `json:"missing"`
}

// Progress is derived from the current field values, so clearing a field
// lowers it again. Blank and whitespace-only values count as empty.
func Progress(d Draft) ProgressReport {
	values := map[string]string{
		"cep":    d.CEP,
		"uf":     d.UF,
		"cidade": d.Cidade,
		"bairro": d.Bairro,
		"rua":    d.Rua,
		"numero": d.Numero,
	}

	report := ProgressReport{Total: len(RequiredFields), Missing: []string{}}
	for _, field := range RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			report.Missing = append(report.Missing, field)
			continue
		}
		report.Filled++
	}
	report.Percentage = report.Filled * 100 / report.Total
	return report
}
