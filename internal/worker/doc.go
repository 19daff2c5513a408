// Package worker выполняет вызовы actions из очереди RabbitMQ.
//
// # Обзор
//
// Worker — stateless компонент, который:
//
//   - получает action.invoke из очереди actions.invoke
//   - вызывает action через invoker.Invoker (таймаут, повторы, журнал, метрики)
//   - публикует action.completed с метаданными вызова
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди.
//
// # Использование
//
//	w := worker.New(worker.Config{
//	    Invoker:     inv,
//	    Publisher:   publisher,
//	    Conn:        mqConn,
//	    Concurrency: 4,
//	    Logger:      logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Ack/Nack
//
// Ошибка action — это нормальный итог вызова: сообщение подтверждается,
// статус виден в журнале и в action.completed. В DLQ уходят только
// сообщения, которые невозможно выполнить (битый payload, неизвестный
// action). Повторы внутри одного вызова делает runtime, а не брокер.
package worker
