package document

import (
	"strings"
	"testing"
)

func TestSubstitute(t *testing.T) {
	tests := map[string]struct {
		text string
		data map[string]string
		want string
	}{
		"single placeholder":         {text: "Eu, {{nome}}, declaro...", data: map[string]string{"nome": "Ana"}, want: "Eu, Ana, declaro..."},
		"repeated placeholder":       {text: "{{a}} e {{a}}", data: map[string]string{"a": "x"}, want: "x e x"},
		"missing key renders empty":  {text: "[{{ausente}}]", data: map[string]string{}, want: "[]"},
		"inner spaces are tolerated": {text: "{{ nome }}", data: map[string]string{"nome": "Ana"}, want: "Ana"},
		"values are not re-expanded": {text: "{{a}}{{b}}", data: map[string]string{"a": "{{b}}", "b": "B"}, want: "{{b}}B"},
		"text without placeholders":  {text: "sem campos", data: nil, want: "sem campos"},
		"accented key":               {text: "Eu, {{número_série}}, declaro", data: map[string]string{"número_série": "Ana"}, want: "Eu, Ana, declaro"},
		"key with inner space":       {text: "{{ nome completo }}.", data: map[string]string{"nome completo": "Ana Lima"}, want: "Ana Lima."},
		"accented missing key":       {text: "[{{patrimônio}}]", data: map[string]string{}, want: "[]"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Substitute(tc.text, tc.data); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("{{b}} {{a}} {{b}}")
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestValidKey(t *testing.T) {
	for key, want := range map[string]bool{
		"nome":           true,
		"número série":   true,
		"  ":             false,
		"a}b":            false,
		"{{patrimonio}}": false,
	} {
		if got := ValidKey(key); got != want {
			t.Fatalf("ValidKey(%q): expected %v, got %v", key, want, got)
		}
	}
}

func TestUndeclared(t *testing.T) {
	tmpl := Template{
		Title:  "Termo de {{tipo}}",
		Body:   "Eu, {{nome}}, recebi {{ número série }} ({{patrimonio}}).",
		Fields: []Field{{Label: "Setor {{setor}}", Key: "patrimonio"}},
	}
	missing := Undeclared(tmpl, []string{"nome", "tipo"})
	if len(missing) != 2 || missing[0] != "número série" || missing[1] != "setor" {
		t.Fatalf("unexpected undeclared keys %v", missing)
	}
}

func TestRender(t *testing.T) {
	tmpl := Template{
		Title: "Termo de {{tipo}}",
		Body:  "Eu, **{{nome}}**, recebi o equipamento.",
		Fields: []Field{
			{Label: "Equipamento", Key: "equipamento"},
			{Label: "Patrimônio", Key: "patrimonio"},
		},
		Seals: []string{"iso9001"},
	}
	rendered := Render(tmpl, map[string]string{"tipo": "Entrega", "nome": "Ana", "equipamento": "Notebook"})

	if rendered.Title != "Termo de Entrega" {
		t.Fatalf("unexpected title %q", rendered.Title)
	}
	if strings.Contains(rendered.Body, "{{") {
		t.Fatalf("expected no residual placeholders, got %q", rendered.Body)
	}
	if !strings.Contains(rendered.HTML, "<strong>Ana</strong>") {
		t.Fatalf("expected markdown emphasis rendered, got %q", rendered.HTML)
	}
	if len(rendered.Rows) != 2 || rendered.Rows[0].Value != "Notebook" || rendered.Rows[1].Value != "" {
		t.Fatalf("unexpected rows %+v", rendered.Rows)
	}

	rendered.Seals[0] = "changed"
	if tmpl.Seals[0] != "iso9001" {
		t.Fatal("expected seals to be copied")
	}
}

func TestMarkdownToHTMLDropsRawHTML(t *testing.T) {
	out := MarkdownToHTML("texto <script>alert(1)</script>")
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected raw html to be skipped, got %q", out)
	}
	if MarkdownToHTML("   ") != "" {
		t.Fatal("expected blank source to render empty")
	}
}
