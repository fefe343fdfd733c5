package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	NotifyQueue         string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	NotifyQueue:         "notify_queue",
}
