package events

import (
	"errors"
	"testing"
	"time"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventToast)

	bus.Publish(&ToastEvent{
		BaseEvent: BaseEvent{EventType: EventToast, Time: time.Now()},
		Level:     ToastSuccess,
		Message:   "求解器已创建",
	})

	select {
	case received := <-ch:
		toast, ok := received.(*ToastEvent)
		if !ok {
			t.Fatal("Expected ToastEvent")
		}
		if toast.Level != ToastSuccess {
			t.Errorf("Expected level success, got %s", toast.Level)
		}
		if toast.Message != "求解器已创建" {
			t.Errorf("Unexpected message %q", toast.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventEntitySaved)
	ch2 := bus.Subscribe(EventEntitySaved)

	bus.PublishEntitySaved(models.KindSolver, 5, false)

	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	savedCh := bus.Subscribe(EventEntitySaved)
	deletedCh := bus.Subscribe(EventEntityDeleted)

	bus.PublishEntitySaved(models.KindProject, 1, true)

	select {
	case <-savedCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("Saved subscriber didn't receive event")
	}

	select {
	case <-deletedCh:
		t.Error("Deleted subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishSessionChanged(models.KindFoldType, true, 0)
	bus.PublishStoreRefreshed(models.KindFoldType, 3, nil)

	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Close()

	ch := bus.Subscribe(EventToast)

	for i := 0; i < 10; i++ {
		bus.PublishToast(ToastInfo, "tick")
	}

	if dropped := bus.GetDroppedEventCount(); dropped != 8 {
		t.Errorf("Expected 8 dropped events, got %d", dropped)
	}
	if reset := bus.ResetDroppedEventCount(); reset != 8 || bus.GetDroppedEventCount() != 0 {
		t.Errorf("ResetDroppedEventCount returned %d, counter now %d", reset, bus.GetDroppedEventCount())
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		case <-time.After(10 * time.Millisecond):
			goto done
		}
	}
done:

	if count != 2 {
		t.Errorf("Expected the 2 buffered events, got %d", count)
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventToast)

	bus.Close()

	_, ok := <-ch
	if ok {
		t.Error("Channel should be closed after bus.Close()")
	}

	// Publishing after close should not panic
	bus.PublishToast(ToastError, "late")

	late := bus.Subscribe(EventToast)
	if _, ok := <-late; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

func TestEventBus_NilPublish(t *testing.T) {
	var bus *EventBus
	bus.PublishToast(ToastInfo, "nobody listening")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventEntityDeleted)
	bus.Unsubscribe(EventEntityDeleted, ch)
	bus.PublishEntityDeleted(models.KindParamDef, 4, "温度")

	select {
	case <-ch:
		t.Error("Unsubscribed channel received an event")
	case <-time.After(20 * time.Millisecond):
	}

	all := bus.SubscribeAll()
	bus.UnsubscribeAll(all)
	bus.PublishEntityDeleted(models.KindParamDef, 4, "温度")

	select {
	case <-all:
		t.Error("Unsubscribed all-events channel received an event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestConvenienceMethods(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	deletedCh := bus.Subscribe(EventEntityDeleted)
	refreshCh := bus.Subscribe(EventStoreRefreshed)

	bus.PublishEntityDeleted(models.KindOutputDef, 9, "最大应力")

	select {
	case event := <-deletedCh:
		del, ok := event.(*EntityDeletedEvent)
		if !ok {
			t.Fatal("Expected EntityDeletedEvent")
		}
		if del.Kind != models.KindOutputDef || del.ID != 9 || del.Name != "最大应力" {
			t.Errorf("Unexpected delete event %+v", del)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for delete event")
	}

	refreshErr := errors.New("backend down")
	bus.PublishStoreRefreshed(models.KindSolver, 0, refreshErr)

	select {
	case event := <-refreshCh:
		ref, ok := event.(*StoreRefreshedEvent)
		if !ok {
			t.Fatal("Expected StoreRefreshedEvent")
		}
		if !errors.Is(ref.Error, refreshErr) {
			t.Errorf("Expected refresh error, got %v", ref.Error)
		}
		if ref.Timestamp().IsZero() {
			t.Error("Expected timestamp to be set")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for refresh event")
	}
}
