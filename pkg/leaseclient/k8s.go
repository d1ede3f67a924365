package leaseclient

import (
	"context"
	"fmt"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/utils/ptr"
)

// K8sClient binds Client to the coordination.k8s.io/v1 Lease resource via
// client-go. It is stateless beyond the clientset it wraps.
type K8sClient struct {
	clientset kubernetes.Interface
}

// NewK8sClient builds a K8sClient authenticating in-cluster, or against
// kubeconfigPath when non-empty (local development).
func NewK8sClient(kubeconfigPath string) (*K8sClient, error) {
	var restConfig *rest.Config
	var err error

	if kubeconfigPath != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	} else {
		restConfig, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create k8s clientset: %w", err)
	}

	return &K8sClient{clientset: clientset}, nil
}

// NewK8sClientForClientset wraps an existing clientset, used by tests and
// by hosts that already own clientset construction.
func NewK8sClientForClientset(clientset kubernetes.Interface) *K8sClient {
	return &K8sClient{clientset: clientset}
}

func (c *K8sClient) Read(ctx context.Context, name, namespace string) (Record, Outcome, error) {
	lease, err := c.clientset.CoordinationV1().Leases(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return Record{}, NotFound, nil
		}
		return Record{}, TransientError, fmt.Errorf("failed to read lease %s/%s: %w", namespace, name, err)
	}
	return fromLease(lease), Ok, nil
}

func (c *K8sClient) Create(ctx context.Context, namespace string, record Record) (Record, Outcome, error) {
	lease := toLease(record)
	lease.Namespace = namespace

	created, err := c.clientset.CoordinationV1().Leases(namespace).Create(ctx, lease, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return Record{}, AlreadyExists, nil
		}
		return Record{}, TransientError, fmt.Errorf("failed to create lease %s/%s: %w", namespace, record.Name, err)
	}
	return fromLease(created), Ok, nil
}

func (c *K8sClient) Replace(ctx context.Context, name, namespace string, record Record) (Record, Outcome, error) {
	lease := toLease(record)
	lease.Name = name
	lease.Namespace = namespace

	updated, err := c.clientset.CoordinationV1().Leases(namespace).Update(ctx, lease, metav1.UpdateOptions{})
	if err != nil {
		if apierrors.IsConflict(err) {
			return Record{}, Conflict, nil
		}
		if apierrors.IsNotFound(err) {
			return Record{}, NotFound, nil
		}
		return Record{}, TransientError, fmt.Errorf("failed to replace lease %s/%s: %w", namespace, name, err)
	}
	return fromLease(updated), Ok, nil
}

func (c *K8sClient) Watch(ctx context.Context, namespace string, handler WatchHandler, onClose OnClose) (WatchHandle, error) {
	w, err := c.clientset.CoordinationV1().Leases(namespace).Watch(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to watch leases in %s: %w", namespace, err)
	}

	handle := &k8sWatchHandle{underlying: w}
	go handle.run(handler, onClose)
	return handle, nil
}

type k8sWatchHandle struct {
	underlying watch.Interface
}

func (h *k8sWatchHandle) Close() {
	h.underlying.Stop()
}

func (h *k8sWatchHandle) run(handler WatchHandler, onClose OnClose) {
	var closeErr error
	for event := range h.underlying.ResultChan() {
		if event.Type == watch.Error {
			closeErr = fmt.Errorf("watch stream error event: %w", apierrors.FromObject(event.Object))
			continue
		}

		lease, ok := event.Object.(*coordinationv1.Lease)
		if !ok {
			continue
		}

		var eventType EventType
		switch event.Type {
		case watch.Added:
			eventType = EventAdded
		case watch.Modified:
			eventType = EventModified
		case watch.Deleted:
			eventType = EventDeleted
		default:
			continue
		}

		handler(eventType, fromLease(lease))
	}
	onClose(closeErr)
}

func fromLease(lease *coordinationv1.Lease) Record {
	r := Record{
		Name:                 lease.Name,
		Namespace:            lease.Namespace,
		ResourceVersion:      lease.ResourceVersion,
		LeaseDurationSeconds: int64(ptr.Deref(lease.Spec.LeaseDurationSeconds, 0)),
	}
	if lease.Spec.HolderIdentity != nil {
		r.HolderIdentity = *lease.Spec.HolderIdentity
	}
	if lease.Spec.AcquireTime != nil {
		r.AcquireTime = lease.Spec.AcquireTime.Time.Unix()
	}
	if lease.Spec.RenewTime != nil {
		r.RenewTime = lease.Spec.RenewTime.Time.Unix()
	}
	return r
}

func toLease(r Record) *coordinationv1.Lease {
	spec := coordinationv1.LeaseSpec{
		LeaseDurationSeconds: ptr.To(int32(r.LeaseDurationSeconds)),
	}
	if r.HolderIdentity != "" {
		spec.HolderIdentity = ptr.To(r.HolderIdentity)
	}
	if r.AcquireTime != 0 {
		t := metav1.NewMicroTime(time.Unix(r.AcquireTime, 0))
		spec.AcquireTime = &t
	}
	if r.RenewTime != 0 {
		t := metav1.NewMicroTime(time.Unix(r.RenewTime, 0))
		spec.RenewTime = &t
	}

	return &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{
			Name:            r.Name,
			ResourceVersion: r.ResourceVersion,
		},
		Spec: spec,
	}
}
