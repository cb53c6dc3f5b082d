package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docuquery/internal/model"
	"docuquery/internal/platform/rabbitmq"
)

type RunWriter interface {
	Create(run *model.AskRun) error
}

// RunPersistWorker drains the run queue into MySQL.
type RunPersistWorker struct {
	conn      *amqp.Connection
	repo      RunWriter
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunPersistWorker(conn *amqp.Connection, repo RunWriter, queueName string) *RunPersistWorker {
	return &RunPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *RunPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					log.Printf("worker %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *RunPersistWorker) handle(body []byte) error {
	var run model.AskRun
	if err := json.Unmarshal(body, &run); err != nil {
		return fmt.Errorf("decode run failed: %w", err)
	}
	if run.ID == "" {
		return fmt.Errorf("decode run failed: missing id")
	}
	if err := w.repo.Create(&run); err != nil {
		return fmt.Errorf("persist run %s failed: %w", run.ID, err)
	}
	return nil
}

func (w *RunPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
