package leaseclient

import (
	"context"
	"testing"
)

func TestStaticClient_AllOperationsFail(t *testing.T) {
	c := NewStaticClient()
	ctx := context.Background()

	if _, _, err := c.Read(ctx, "L", "ns"); err == nil {
		t.Error("Read() should error")
	}
	if _, _, err := c.Create(ctx, "ns", Record{}); err == nil {
		t.Error("Create() should error")
	}
	if _, _, err := c.Replace(ctx, "L", "ns", Record{}); err == nil {
		t.Error("Replace() should error")
	}
	if _, err := c.Watch(ctx, "ns", func(EventType, Record) {}, func(error) {}); err == nil {
		t.Error("Watch() should error")
	}
}
