package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/cloudtrim/rightsizer/orchestrator"
	"github.com/cloudtrim/rightsizer/types"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Cost Optimization Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #1a7f4b 0%, #0d5230 100%);
            color: white;
            padding: 40px;
        }
        .header h1 { font-size: 2.2em; margin-bottom: 10px; }
        .header .meta { opacity: 0.9; }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(240px, 1fr));
            gap: 20px;
            padding: 30px 40px;
        }
        .summary-card {
            background: white;
            padding: 24px;
            border-radius: 10px;
            border: 2px solid #e8eaed;
        }
        .summary-card h3 {
            color: #5f6368;
            font-size: 0.8em;
            text-transform: uppercase;
            letter-spacing: 1px;
            margin-bottom: 10px;
        }
        .summary-card .value { font-size: 2.2em; font-weight: 700; }
        .summary-card.savings { border-left: 6px solid #34a853; }
        .summary-card.savings .value { color: #34a853; }
        table { width: 100%; border-collapse: collapse; }
        .table-wrap { padding: 0 40px 40px; }
        th {
            background: #f8f9fa;
            text-align: left;
            padding: 12px;
            font-size: 0.85em;
            text-transform: uppercase;
            color: #5f6368;
            border-bottom: 2px solid #e8eaed;
        }
        td { padding: 12px; border-bottom: 1px solid #e8eaed; }
        .money { text-align: right; font-variant-numeric: tabular-nums; }
        .badge {
            display: inline-block;
            padding: 2px 10px;
            border-radius: 12px;
            font-size: 0.8em;
            background: #e8f0fe;
            color: #1967d2;
        }
        .badge.reservation { background: #fef7e0; color: #b06000; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Cost Optimization Report</h1>
            <div class="meta">
                Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}} &middot;
                Window {{.Window.Start.Format "2006-01-02"}} to {{.Window.End.Format "2006-01-02"}}
            </div>
        </div>
        <div class="summary">
            <div class="summary-card savings">
                <h3>Monthly Savings</h3>
                <div class="value">{{money .Summary.TotalMonthlySavings}}</div>
            </div>
            <div class="summary-card savings">
                <h3>Annual Savings</h3>
                <div class="value">{{money .Summary.TotalAnnualSavings}}</div>
            </div>
            <div class="summary-card">
                <h3>Resources Analyzed</h3>
                <div class="value">{{.ResourcesAnalyzed}}</div>
            </div>
            <div class="summary-card">
                <h3>Recommendations</h3>
                <div class="value">{{len .Recommendations}}</div>
            </div>
        </div>
        <div class="table-wrap">
            <table>
                <thead>
                    <tr>
                        <th>Resource</th>
                        <th>Region</th>
                        <th>Action</th>
                        <th>Current</th>
                        <th>Proposed</th>
                        <th class="money">Monthly</th>
                        <th class="money">Annual</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Recommendations}}
                    <tr>
                        <td>{{label .}}</td>
                        <td>{{.Region}}</td>
                        <td><span class="badge{{if isReservation .}} reservation{{end}}">{{action .}}</span></td>
                        <td>{{.Current.Name}}</td>
                        <td>{{.Proposed.Name}}</td>
                        <td class="money">{{money .MonthlySavings}}</td>
                        <td class="money">{{money .AnnualSavings}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>
</body>
</html>
`

// HTMLRenderer writes a self-contained HTML report
type HTMLRenderer struct{}

// Render executes the report template
func (r *HTMLRenderer) Render(w io.Writer, result *orchestrator.RunResult) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"label": resourceLabel,
		"action": actionLabel,
		"isReservation": func(rec types.Recommendation) bool {
			return rec.Kind == types.RecommendReservation
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	return tmpl.Execute(w, result)
}
