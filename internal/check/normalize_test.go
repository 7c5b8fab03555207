package check

import "testing"

func TestNormalize_Lowercases(t *testing.T) {
	if got := Normalize("HELLO World"); got != "hello world" {
		t.Errorf("Normalize = %q, want %q", got, "hello world")
	}
}

// 大文字・小文字の違いがあるベトナム語テキストが正規化後に一致することを検証
func TestNormalize_VietnameseCaseInsensitive(t *testing.T) {
	expected := Normalize("Ưu Đãi")
	observed := Normalize("ưu đãi")
	if expected != observed {
		t.Errorf("正規化後は一致するべき: %q != %q", expected, observed)
	}
}

// 結合文字列（NFD）と合成済み文字（NFC）が正規化後に一致することを検証
func TestNormalize_NFCEquivalence(t *testing.T) {
	// "é" をNFC（U+00E9）とNFD（U+0065 U+0301）の両表現で与える
	composed := "café"
	decomposed := "café"
	if Normalize(composed) != Normalize(decomposed) {
		t.Errorf("NFC正規化後は一致するべき: %q != %q", Normalize(composed), Normalize(decomposed))
	}
}

func TestNormalize_EmptyString(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want \"\"", got)
	}
}

// 同一入力に対して常に同一出力を返すことを検証（冪等）
func TestNormalize_Idempotent(t *testing.T) {
	input := "Khuyến Mãi ĐẶC BIỆT"
	first := Normalize(input)
	second := Normalize(first)
	if first != second {
		t.Errorf("冪等であるべき: %q != %q", first, second)
	}
}
