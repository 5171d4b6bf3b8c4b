package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if GetCatalog("") != base {
		t.Fatal("expected empty locale to resolve to en-US")
	}
	if GetCatalog("x-missing") != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestGetCatalogMatchesRegion(t *testing.T) {
	pt := NewCatalog("pt-BR", map[Code]string{"CHANNEL_FULL": "O canal está cheio."})
	RegisterCatalog("pt-BR", pt)
	if got := GetCatalog("pt"); got != pt {
		t.Fatalf("GetCatalog(pt) = %v, want pt-BR catalog", got.Locale())
	}
}

func TestBaseCatalogRendersMetadata(t *testing.T) {
	got := GetCatalog("en-US").Format("CHANNEL_NAME_TOO_LONG", map[string]string{"Limit": "50"})
	if got != "The channel name must be at most 50 bytes." {
		t.Fatalf("format = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
