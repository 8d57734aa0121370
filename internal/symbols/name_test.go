package symbols

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`app\models\User`, `app\models\User`},
		{`\app\models\User`, `app\models\User`},
		{`  \\Foo `, `Foo`},
		{``, ``},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameParts(t *testing.T) {
	name := `\app\models\User`

	if !IsQualified(name) {
		t.Error("IsQualified should be true for a namespaced name")
	}
	if IsQualified("User") {
		t.Error("IsQualified should be false for a bare name")
	}
	if got := Segments(name); !reflect.DeepEqual(got, []string{"app", "models", "User"}) {
		t.Errorf("Segments = %v", got)
	}
	if Segments("") != nil {
		t.Error("Segments(\"\") should be nil")
	}
	if got := Namespace(name); got != `app\models` {
		t.Errorf("Namespace = %q", got)
	}
	if got := ShortName(name); got != "User" {
		t.Errorf("ShortName = %q", got)
	}
	if got := Namespace("User"); got != "" {
		t.Errorf("Namespace(User) = %q, want empty", got)
	}
	if got := Qualify(`app\models`, "Post"); got != `app\models\Post` {
		t.Errorf("Qualify = %q", got)
	}
	if got := Qualify("", "Post"); got != "Post" {
		t.Errorf("Qualify with empty namespace = %q", got)
	}
}

func TestAliasPath(t *testing.T) {
	tests := []struct {
		name, ext, want string
	}{
		{`app\models\User`, ".php", "@app/models/User.php"},
		{`\yii\base\Component`, ".php", "@yii/base/Component.php"},
		{`vendor\Lib`, ".inc", "@vendor/Lib.inc"},
	}
	for _, tt := range tests {
		if got := AliasPath(tt.name, tt.ext); got != tt.want {
			t.Errorf("AliasPath(%q, %q) = %q, want %q", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestKeyIsCaseInsensitive(t *testing.T) {
	if Key(`\App\Models\User`) != Key(`app\models\user`) {
		t.Error("Key should fold case and the leading separator")
	}
}
