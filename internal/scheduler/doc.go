// Package scheduler вызывает actions по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Run)
//   - cron.go      — cron-выражения и вычисление следующего времени
//   - dispatch.go  — отправка запросов: в процессе или через RabbitMQ
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Schedules:  cfg.DomainSchedules(),
//	    Dispatcher: scheduler.NewQueueDispatcher(publisher),
//	    Logger:     logger,
//	})
//	go sched.Run(ctx, time.Second, repo.NewLeaderLock(pool, lockKey))
//
// Несколько экземпляров scheduler выбирают лидера через pg_try_advisory_lock;
// без базы данных Run вызывается с leader == nil.
package scheduler
