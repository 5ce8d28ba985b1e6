package render

// pageTemplate 是预览与导出共用的 HTML 模板。
// #resume-root 是唯一的渲染目标，导出时按它的尺寸截图。
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Name}}</title>
<style>
  html, body {
    margin: 0;
    padding: 0;
    background: transparent;
  }
  #resume-root {
    box-sizing: border-box;
    width: {{.Width}}px;
    margin: 0 auto;
    padding: 24px;
    border-radius: 12px;
    background: #ffffff;
    color: #111827;
    font-family: {{.FontFamily | safeCSS}};
    font-size: 14px;
    line-height: 1.5;
  }
  .header { display: flex; align-items: center; gap: 16px; }
  .header.layout-left { flex-direction: row; }
  .header.layout-right { flex-direction: row-reverse; justify-content: space-between; }
  .template-classic .header { flex-direction: column; text-align: center; }
  .photo { width: 80px; height: 80px; flex-shrink: 0; overflow: hidden; border-radius: 8px; background: #f3f4f6; }
  .photo img { width: 100%; height: 100%; object-fit: cover; }
  .name { margin: 0; font-size: 24px; font-weight: 600; line-height: 1.2; }
  .title { margin: 0; font-size: 14px; color: #6b7280; }
  .contact { margin-top: 8px; display: flex; flex-wrap: wrap; gap: 4px 16px; font-size: 12px; color: #6b7280; }
  .template-classic .contact { justify-content: center; }
  .divider { margin: 20px 0; height: 1px; background: #e5e7eb; }
  .template-modern .divider { background: {{.Accent | safeCSS}}; opacity: 0.35; }
  h3 { margin: 0 0 6px; font-size: 14px; font-weight: 600; color: {{.Accent | safeCSS}}; }
  .template-classic h3 { text-transform: uppercase; letter-spacing: 0.06em; color: #111827; }
  .chips { display: flex; flex-wrap: wrap; gap: 8px; margin: 0; padding: 0; list-style: none; }
  .chips li, .chip { border-radius: 6px; background: #f3f4f6; padding: 4px 8px; font-size: 12px; }
  .entry { display: grid; gap: 4px; margin-bottom: 16px; }
  .entry-head { display: flex; flex-wrap: wrap; align-items: baseline; justify-content: space-between; gap: 8px; }
  .entry-title { font-weight: 500; }
  .muted { font-size: 12px; color: #6b7280; }
  .bullets { margin: 0 0 0 16px; padding: 0; }
  .live { font-size: 12px; color: {{.Accent | safeCSS}}; text-decoration: underline; }
</style>
</head>
<body>
<div id="resume-root" class="template-{{.Template}}" role="region" aria-label="Live resume preview">
  <div class="header layout-{{.Layout}}">
    <div class="photo"><img src="{{.Photo}}" alt="{{if .HasPhoto}}Profile photo{{end}}"></div>
    <div>
      <h2 class="name">{{.Name}}</h2>
      <p class="title">{{.Title}}</p>
      <div class="contact">
        {{- range .Contact}}<span>{{.}}</span>{{end -}}
      </div>
    </div>
  </div>

  <div class="divider"></div>
  <section class="summary">
    <h3>Summary</h3>
    <p>{{.Summary}}</p>
  </section>

  {{- if .Skills}}
  <div class="divider"></div>
  <section class="skills">
    <h3>Skills</h3>
    <ul class="chips">{{range .Skills}}<li>{{.}}</li>{{end}}</ul>
  </section>
  {{- end}}

  {{- if .AreasOfInterest}}
  <div class="divider"></div>
  <section class="interests">
    <h3>Areas of Interest</h3>
    <ul class="chips">{{range .AreasOfInterest}}<li>{{.}}</li>{{end}}</ul>
  </section>
  {{- end}}

  {{- if .Projects}}
  <div class="divider"></div>
  <section class="projects">
    <h3>Projects</h3>
    {{- range .Projects}}
    <div class="entry">
      <div class="entry-head">
        <div class="entry-title">{{.Name}}</div>
        {{- if .LiveLink}}<a class="live" href="{{.LiveLink}}">Live</a>{{end}}
      </div>
      {{- if .Description}}<p class="muted">{{.Description}}</p>{{end}}
      {{- if .TechStack}}<div class="chips">{{range .TechStack}}<span class="chip">{{.}}</span>{{end}}</div>{{end}}
    </div>
    {{- end}}
  </section>
  {{- end}}

  {{- if .Experience}}
  <div class="divider"></div>
  <section class="experience">
    <h3>Experience</h3>
    {{- range .Experience}}
    <div class="entry">
      <div class="entry-head">
        <div class="entry-title">{{.Role}} · {{.Company}}</div>
        <div class="muted">{{.Start}} &ndash; {{.End}}</div>
      </div>
      {{- if .Bullets}}
      <ul class="bullets">{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
      {{- end}}
    </div>
    {{- end}}
  </section>
  {{- end}}

  {{- if .Education}}
  <div class="divider"></div>
  <section class="education">
    <h3>Education</h3>
    {{- range .Education}}
    <div class="entry">
      <div class="entry-head">
        <div class="entry-title">{{.Degree}} · {{.School}}</div>
        <div class="muted">{{.Start}} &ndash; {{.End}}</div>
      </div>
      {{- if .Details}}<p class="muted">{{.Details}}</p>{{end}}
    </div>
    {{- end}}
  </section>
  {{- end}}
</div>
</body>
</html>
`
