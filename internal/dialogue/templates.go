package dialogue

import (
	"fmt"
	"strings"
)

// Canned reply text lives here so the engine's rule logic stays readable.
// All customer-facing copy is Traditional Chinese.

const (
	msgAskName        = "歡迎來到 Lumine 美髮沙龍！我是預約小幫手小美。請問怎麼稱呼您呢？"
	msgAskPhone       = "請留下您的手機號碼，方便我們跟您確認預約。"
	msgAskDate        = "請問您想預約哪一天呢？可以輸入像「5/20」或「2025-05-20」的日期。"
	msgAskDateRetry   = "不好意思，我沒看懂這個日期，可以再輸入一次嗎？例如「5/20」。"
	msgAskTimeRetry   = "不好意思，我沒看懂這個時間，可以再輸入一次嗎？例如「14:00」或「2點半」。"
	msgCancelled      = "好的，已經幫您取消這次的預約流程。想重新預約隨時輸入「預約」喔！"
	msgNoBookings     = "您目前沒有任何預約紀錄。想預約的話輸入「預約」就可以開始囉！"
	msgReserveFailed  = "非常抱歉，預約沒有成功，可能是系統忙碌中。您選的日期和時間我還留著，請再回覆「確認」試一次。"
	msgConfirmRetry   = "請回覆「確認」完成預約，或輸入「取消」放棄這次預約。"
	msgSlotTakenAgain = "哎呀，這個時段剛剛被訂走了！"
	msgDayFull        = "這一天的時段都被預約滿了，可以換一天試試嗎？"
)

func msgWelcomeBack(name string) string {
	return fmt.Sprintf("%s您好，歡迎回來！", name)
}

func msgGreetKnown(name string) string {
	return fmt.Sprintf("%s您好！需要預約服務的話，輸入「預約」就可以開始囉。", name)
}

func msgGotName(name string) string {
	return fmt.Sprintf("%s您好！%s", name, msgAskPhone)
}

func msgAskService(menu string) string {
	return fmt.Sprintf("請問想預約哪一項服務呢？我們提供：%s。", menu)
}

func msgServiceRetry(menu string) string {
	return fmt.Sprintf("不好意思，我們目前提供的服務有：%s。請問您想預約哪一項呢？", menu)
}

func msgGotService(service string) string {
	return fmt.Sprintf("好的，幫您安排%s。%s", service, msgAskDate)
}

func msgSlotList(date, slots string) string {
	return fmt.Sprintf("%s 目前可以預約的時段：\n%s\n請問您想約幾點呢？", date, slots)
}

func msgSlotTaken(hhmm, slots string) string {
	return fmt.Sprintf("不好意思，%s 已經被預約了。還有這些時段可以選：\n%s", hhmm, slots)
}

func msgConfirm(service, date, hhmm string) string {
	return fmt.Sprintf("跟您確認一下：%s，%s %s。沒問題的話請回覆「確認」。", service, date, hhmm)
}

func msgBooked(service, date, start, end, link string) string {
	b := fmt.Sprintf("預約完成！%s，%s %s ~ %s。期待您的光臨！", service, date, start, end)
	if link != "" {
		b += "\n行事曆連結：" + link
	}
	return b
}

func msgPendingStatus(service, date, hhmm string) string {
	if service == "" {
		service = "服務"
	}
	if hhmm == "" {
		return fmt.Sprintf("您正在預約%s，日期是 %s，還沒選時間喔。", service, date)
	}
	return fmt.Sprintf("您正在預約%s，時間是 %s %s，回覆「確認」就完成囉。", service, date, hhmm)
}

func msgLastBooking(service, date, start string) string {
	return fmt.Sprintf("您最近一筆預約：%s，%s %s。", service, date, start)
}

// formatSlots renders a free-slot list. Short lists are printed in full;
// longer lists are bucketed by time of day so the reply stays scannable.
func formatSlots(slots []string) string {
	if len(slots) <= 10 {
		return strings.Join(slots, "、")
	}

	var morning, afternoon, evening []string
	for _, s := range slots {
		switch {
		case s < "12:00":
			morning = append(morning, s)
		case s < "17:00":
			afternoon = append(afternoon, s)
		default:
			evening = append(evening, s)
		}
	}

	var lines []string
	if len(morning) > 0 {
		lines = append(lines, "早上："+strings.Join(morning, "、"))
	}
	if len(afternoon) > 0 {
		lines = append(lines, "下午："+strings.Join(afternoon, "、"))
	}
	if len(evening) > 0 {
		lines = append(lines, "晚上："+strings.Join(evening, "、"))
	}
	return strings.Join(lines, "\n")
}
