package leaseclient

import (
	"context"
	"errors"
	"testing"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	"k8s.io/utils/ptr"
)

func TestK8sClient_Create(t *testing.T) {
	cs := fake.NewSimpleClientset()
	c := NewK8sClientForClientset(cs)

	record, outcome, err := c.Create(context.Background(), "ns", Record{
		Name:                 "L",
		HolderIdentity:       "hostA",
		LeaseDurationSeconds: 20,
		AcquireTime:          1000,
		RenewTime:            1000,
	})
	if err != nil || outcome != Ok {
		t.Fatalf("Create() = %v, %v, want Ok", outcome, err)
	}
	if record.HolderIdentity != "hostA" {
		t.Errorf("HolderIdentity = %q, want hostA", record.HolderIdentity)
	}
	if record.LeaseDurationSeconds != 20 {
		t.Errorf("LeaseDurationSeconds = %d, want 20", record.LeaseDurationSeconds)
	}
}

func TestK8sClient_Read_NotFound(t *testing.T) {
	cs := fake.NewSimpleClientset()
	c := NewK8sClientForClientset(cs)

	_, outcome, err := c.Read(context.Background(), "missing", "ns")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if outcome != NotFound {
		t.Errorf("outcome = %v, want NotFound", outcome)
	}
}

func TestK8sClient_Replace_Conflict(t *testing.T) {
	cs := fake.NewSimpleClientset(&coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{Name: "L", Namespace: "ns", ResourceVersion: "1"},
		Spec: coordinationv1.LeaseSpec{
			HolderIdentity:       ptr.To("hostA"),
			LeaseDurationSeconds: ptr.To(int32(20)),
		},
	})
	// The fake clientset's object tracker does not compare resourceVersions,
	// so the API server's conflict response to a stale version is injected.
	cs.PrependReactor("update", "leases", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewConflict(coordinationv1.Resource("leases"), "L", errors.New("resourceVersion mismatch"))
	})
	c := NewK8sClientForClientset(cs)

	_, outcome, err := c.Replace(context.Background(), "L", "ns", Record{
		Name:            "L",
		HolderIdentity:  "hostB",
		ResourceVersion: "stale",
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if outcome != Conflict {
		t.Errorf("outcome = %v, want Conflict", outcome)
	}
}

func TestFromLease_AbsentRenewTime(t *testing.T) {
	lease := &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{Name: "L", Namespace: "ns"},
		Spec: coordinationv1.LeaseSpec{
			HolderIdentity:       ptr.To("hostA"),
			LeaseDurationSeconds: ptr.To(int32(20)),
		},
	}
	r := fromLease(lease)
	if r.RenewTime != 0 {
		t.Errorf("RenewTime = %d, want 0 when absent", r.RenewTime)
	}
}

func TestToLease_RoundTripsAcquireAndRenewTime(t *testing.T) {
	now := time.Now().Unix()
	r := Record{Name: "L", HolderIdentity: "hostA", AcquireTime: now, RenewTime: now}
	lease := toLease(r)
	got := fromLease(lease)
	if got.AcquireTime != now || got.RenewTime != now {
		t.Errorf("round trip = %+v, want AcquireTime/RenewTime = %d", got, now)
	}
}
