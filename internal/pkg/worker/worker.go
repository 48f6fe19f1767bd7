package worker

import (
	"log"

	userModel "linka/internal/domain/user/model"

	"gorm.io/gorm"
)

// ActivityTask 一条待落库的用户行为记录
type ActivityTask struct {
	UserID       string
	ActivityType string // login, post, comment, like, follow
	IPAddress    string
	UserAgent    string
	Retry        int // 重试次数
}

// ActivityRecorder 异步写入用户行为审计的 worker 池。
// 审计写入不在请求事务里，失败重试，最终失败只记日志不影响请求。
type ActivityRecorder struct {
	TaskQueue  chan ActivityTask
	RetryQueue chan ActivityTask
	DB         *gorm.DB
	WorkerNum  int
	MaxRetry   int
}

// NewActivityRecorder 创建行为记录器
func NewActivityRecorder(db *gorm.DB, workerNum int, bufferSize int) *ActivityRecorder {
	return &ActivityRecorder{
		TaskQueue:  make(chan ActivityTask, bufferSize),
		RetryQueue: make(chan ActivityTask, bufferSize/2),
		DB:         db,
		WorkerNum:  workerNum,
		MaxRetry:   3,
	}
}

// Start 启动 worker 协程
func (r *ActivityRecorder) Start() {
	for i := 0; i < r.WorkerNum; i++ {
		go r.worker(i)
	}
	go r.retryWorker()
	log.Printf("Activity recorder started with %d workers", r.WorkerNum)
}

func (r *ActivityRecorder) worker(id int) {
	for task := range r.TaskQueue {
		if err := r.processTask(task); err != nil {
			log.Printf("[Worker %d] Failed to record activity (UserID: %s, Type: %s): %v",
				id, task.UserID, task.ActivityType, err)

			if task.Retry < r.MaxRetry {
				task.Retry++
				select {
				case r.RetryQueue <- task:
				default:
					log.Printf("[Worker %d] Retry queue full, activity dropped: %+v", id, task)
				}
			} else {
				log.Printf("[Worker %d] Activity exceeded max retries, dropped: %+v", id, task)
			}
		}
	}
}

func (r *ActivityRecorder) retryWorker() {
	for task := range r.RetryQueue {
		select {
		case r.TaskQueue <- task:
		default:
			log.Printf("[RetryWorker] Main queue full, activity dropped: %+v", task)
		}
	}
}

func (r *ActivityRecorder) processTask(task ActivityTask) error {
	activity := &userModel.UserActivity{
		UserID:       task.UserID,
		ActivityType: task.ActivityType,
		IPAddress:    task.IPAddress,
		UserAgent:    task.UserAgent,
	}
	return r.DB.Create(activity).Error
}

// Record 投递一条行为记录，队列满时丢弃并记日志
func (r *ActivityRecorder) Record(task ActivityTask) {
	select {
	case r.TaskQueue <- task:
	default:
		log.Printf("Activity queue full, dropping record: %+v", task)
	}
}
