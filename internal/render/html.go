package render

import (
	"fmt"
	"html/template"
	"io"

	"voicecal/internal/layout"
)

var pageTmpl = template.Must(template.New("calendar").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  * { box-sizing: border-box; }
  body { margin: 0; font-family: "Pretendard", "Noto Sans KR", sans-serif; background: #fff; color: #111; }
  .month { padding: 16px; }
  .month h1 { margin: 0 0 12px; font-size: 32px; }
  .weekdays, .week { display: grid; grid-template-columns: repeat(7, 1fr); }
  .weekdays div { font-weight: 600; padding: 4px 6px; border-bottom: 2px solid #111; }
  .week { grid-auto-rows: minmax(22px, auto); min-height: 120px; border-bottom: 1px solid #ccc; }
  .day { grid-row: 1; padding: 4px 6px; font-size: 14px; }
  .day.out { color: #aaa; }
  .day.weekend { color: #c0392b; }
  .day.out.weekend { color: #e6a8a1; }
  .day.today span { background: #111; color: #fff; border-radius: 50%; padding: 2px 6px; }
  .bar { margin: 1px 2px; padding: 1px 6px; border-radius: 4px; color: #fff; font-size: 13px;
         white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
  .bar.before { border-top-left-radius: 0; border-bottom-left-radius: 0; margin-left: 0; }
  .bar.after { border-top-right-radius: 0; border-bottom-right-radius: 0; margin-right: 0; }
  .bar .time { font-weight: 600; margin-right: 4px; }
  .bar .nth { opacity: 0.8; font-size: 11px; }
</style>
</head>
<body>
<div class="month" data-ready="true">
  <h1>{{.Title}}</h1>
  <div class="weekdays">{{range .Weekdays}}<div>{{.}}</div>{{end}}</div>
  {{- range $r, $row := .Rows}}
  <div class="week" data-row="{{$r}}" data-layers="{{$row.Layers}}">
    {{- range $row.Cells}}
    <div class="day{{if not .InMonth}} out{{end}}{{if .Weekend}} weekend{{end}}{{if .Today}} today{{end}}"><span>{{.Day}}</span></div>
    {{- end}}
    {{- range $row.Bars}}
    <div class="bar{{if .Before}} before{{end}}{{if .After}} after{{end}}" data-event="{{.EventID}}" title="{{.Tooltip}}" style="grid-column: {{.Col}} / span {{.Span}}; grid-row: {{.GridRow}}; background: {{.Color}};">
      {{- if .Before}}&lsaquo; <span class="nth">{{.DayIndex}}일째</span> {{end}}{{if .Time}}<span class="time">{{.Time}}</span>{{end}}{{.Title}}{{if .After}} &rsaquo;{{end -}}
    </div>
    {{- end}}
  </div>
  {{- end}}
</div>
</body>
</html>
`))

// HTML writes a standalone page for view. The root element carries
// data-ready="true" so headless capture can wait for it.
func HTML(w io.Writer, view layout.MonthView, opts Options) error {
	if err := pageTmpl.Execute(w, buildMonth(view, opts)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
