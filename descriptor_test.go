package reactor

import "testing"

func TestDescriptorCloseOnce(t *testing.T) {
	calls := 0
	d := newDescriptor(7, func(fd int) error {
		calls++
		if fd != 7 {
			t.Fatalf("closeFn got fd %d, want 7", fd)
		}
		return nil
	})

	if err := d.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if calls != 1 {
		t.Fatalf("closeFn called %d times, want 1", calls)
	}
}

func TestDescriptorFD(t *testing.T) {
	d := newDescriptor(42, func(int) error { return nil })
	if got := d.FD(); got != 42 {
		t.Fatalf("FD() = %d, want 42", got)
	}
}
