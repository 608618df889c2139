package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	plain := "correct horse battery"

	hash, err := HashPassword(plain)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if hash == "" || hash == plain {
		t.Fatalf("Unexpected hash %q", hash)
	}

	if err := ComparePassword(hash, plain); err != nil {
		t.Errorf("ComparePassword() should succeed: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Error("ComparePassword() should fail for wrong password")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
