package plugin

// manifestLuaFile registers the plugin's functions with the editor's remote
// plugin host.
const manifestLuaFile = `-- Code generated by dbeelink -manifest. DO NOT EDIT.
vim.fn["remote#host#RegisterPlugin"]("{{ .Host }}", "{{ .Executable }}", {
{{- range .Specs }}
  { type = "{{ .Type }}", name = "{{ .Name }}", sync = {{ .Sync }}, opts = {} },
{{- end }}
})
`
