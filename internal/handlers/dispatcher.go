package handlers

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher runs updates of one chat strictly in arrival order while
// different chats proceed in parallel.
type Dispatcher struct {
	handle func(ctx context.Context, upd tgbotapi.Update)

	mu      sync.Mutex
	pending map[int64][]tgbotapi.Update // queued behind the running update
	wg      sync.WaitGroup
}

func NewDispatcher(handle func(ctx context.Context, upd tgbotapi.Update)) *Dispatcher {
	return &Dispatcher{handle: handle, pending: make(map[int64][]tgbotapi.Update)}
}

func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	id := chatID(upd)

	d.mu.Lock()
	if queue, busy := d.pending[id]; busy {
		d.pending[id] = append(queue, upd)
		d.mu.Unlock()
		return
	}
	d.pending[id] = nil
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(ctx, id, upd)
}

func (d *Dispatcher) drain(ctx context.Context, id int64, upd tgbotapi.Update) {
	defer d.wg.Done()
	for {
		d.handle(ctx, upd)

		d.mu.Lock()
		queue := d.pending[id]
		if len(queue) == 0 {
			delete(d.pending, id)
			d.mu.Unlock()
			return
		}
		upd = queue[0]
		d.pending[id] = queue[1:]
		d.mu.Unlock()
	}
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func chatID(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil:
		return upd.Message.Chat.ID
	case upd.MyChatMember != nil:
		return upd.MyChatMember.Chat.ID
	case upd.EditedMessage != nil:
		return upd.EditedMessage.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		return upd.CallbackQuery.Message.Chat.ID
	}
	return 0
}
